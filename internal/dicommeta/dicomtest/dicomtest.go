// Package dicomtest encodes minimal DICOM Part 10 files for tests.
//
// Files use the explicit VR little endian transfer syntax and carry only the
// attributes given, which is enough for header-only readers.
package dicomtest

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"strconv"

	"dicom-viewer/internal/dicommeta"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

type element struct {
	group, elem uint16
	vr          string
}

var elements = map[dicommeta.Field]element{
	dicommeta.FieldStudyDate:         {0x0008, 0x0020, "DA"},
	dicommeta.FieldModality:          {0x0008, 0x0060, "CS"},
	dicommeta.FieldStudyDescription:  {0x0008, 0x1030, "LO"},
	dicommeta.FieldSeriesDescription: {0x0008, 0x103E, "LO"},
	dicommeta.FieldPatientName:       {0x0010, 0x0010, "PN"},
	dicommeta.FieldPatientID:         {0x0010, 0x0020, "LO"},
	dicommeta.FieldSliceThickness:    {0x0018, 0x0050, "DS"},
	dicommeta.FieldStudyInstanceUID:  {0x0020, 0x000D, "UI"},
	dicommeta.FieldSeriesInstanceUID: {0x0020, 0x000E, "UI"},
	dicommeta.FieldSeriesNumber:      {0x0020, 0x0011, "IS"},
	dicommeta.FieldInstanceNumber:    {0x0020, 0x0013, "IS"},
	dicommeta.FieldSliceLocation:     {0x0020, 0x1041, "DS"},
	dicommeta.FieldRows:              {0x0028, 0x0010, "US"},
	dicommeta.FieldColumns:           {0x0028, 0x0011, "US"},
}

// Encode returns the bytes of a Part 10 file carrying h.
func Encode(h dicommeta.Header) []byte {
	var meta bytes.Buffer
	writeElement(&meta, element{0x0002, 0x0010, "UI"}, explicitVRLittleEndian)

	var buf bytes.Buffer
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")

	groupLength := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLength, uint32(meta.Len()))
	writeRaw(&buf, 0x0002, 0x0000, "UL", groupLength)
	buf.Write(meta.Bytes())

	fields := make([]dicommeta.Field, 0, len(h))
	for f := range h {
		if _, ok := elements[f]; ok {
			fields = append(fields, f)
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		a, b := elements[fields[i]], elements[fields[j]]
		if a.group != b.group {
			return a.group < b.group
		}
		return a.elem < b.elem
	})

	for _, f := range fields {
		writeElement(&buf, elements[f], h[f])
	}

	return buf.Bytes()
}

// WriteFile encodes h and writes it to path.
func WriteFile(path string, h dicommeta.Header) error {
	return os.WriteFile(path, Encode(h), 0o644)
}

func writeElement(buf *bytes.Buffer, e element, value string) {
	if e.vr == "US" {
		n, _ := strconv.Atoi(value)
		v := make([]byte, 2)
		binary.LittleEndian.PutUint16(v, uint16(n))
		writeRaw(buf, e.group, e.elem, e.vr, v)
		return
	}

	v := []byte(value)
	if len(v)%2 == 1 {
		if e.vr == "UI" {
			v = append(v, 0x00)
		} else {
			v = append(v, ' ')
		}
	}
	writeRaw(buf, e.group, e.elem, e.vr, v)
}

func writeRaw(buf *bytes.Buffer, group, elem uint16, vr string, value []byte) {
	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint16(hdr[0:2], group)
	binary.LittleEndian.PutUint16(hdr[2:4], elem)
	copy(hdr[4:6], vr)
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(len(value)))
	buf.Write(hdr)
	buf.Write(value)
}
