package database

// Comment is a timestamped note on a study, or on one of its series when
// SeriesUID is set.
type Comment struct {
	ID        int64   `json:"id"`
	StudyUID  string  `json:"studyUid"`
	SeriesUID *string `json:"seriesUid"`
	Text      string  `json:"text"`
	Time      int64   `json:"time"`
}

type SeriesNotes struct {
	Description string    `json:"description"`
	Comments    []Comment `json:"comments"`
}

// StudyNotes is everything stored for one study. Reports is always empty;
// report storage is not supported.
type StudyNotes struct {
	Description string                  `json:"description"`
	Comments    []Comment               `json:"comments"`
	Series      map[string]*SeriesNotes `json:"series"`
	Reports     []any                   `json:"reports"`
}

type StudyDescription struct {
	StudyUID    string `json:"studyUid"`
	Description string `json:"description"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type SeriesDescription struct {
	StudyUID    string `json:"studyUid"`
	SeriesUID   string `json:"seriesUid"`
	Description string `json:"description"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// DeletedComment confirms a deletion.
type DeletedComment struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

func newStudyNotes() *StudyNotes {
	return &StudyNotes{
		Comments: []Comment{},
		Series:   make(map[string]*SeriesNotes),
		Reports:  []any{},
	}
}

func (n *StudyNotes) series(uid string) *SeriesNotes {
	s, ok := n.Series[uid]
	if !ok {
		s = &SeriesNotes{Comments: []Comment{}}
		n.Series[uid] = s
	}
	return s
}
