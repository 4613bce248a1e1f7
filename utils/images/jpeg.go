package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

var (
	soi  = []byte{0xFF, 0xD8}
	app0 = []byte{0xFF, 0xE0}
)

// withJFIF returns JPEG stream which second segment is JFIF APP0 with given
// pixels per inch density. Streams already starting with APP0 are returned
// as is. Some word processors refuse JPEG streams without it.
func withJFIF(data []byte, ppi uint16) ([]byte, error) {
	if len(data) < 4 || !bytes.HasPrefix(data, soi) {
		return nil, errors.New("not a jpeg stream")
	}
	if bytes.Equal(data[2:4], app0) {
		return data, nil
	}

	seg := struct {
		Marker     [2]byte
		Length     uint16
		Ident      [5]byte
		Version    [2]byte
		Units      uint8
		XDensity   uint16
		YDensity   uint16
		ThumbSizes [2]uint8
	}{
		Marker:   [2]byte(app0),
		Length:   16,
		Ident:    [5]byte{'J', 'F', 'I', 'F', 0},
		Version:  [2]byte{1, 2},
		Units:    1, // dots per inch
		XDensity: ppi,
		YDensity: ppi,
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(data)+18))
	buf.Write(soi)
	_ = binary.Write(buf, binary.BigEndian, &seg)
	buf.Write(data[2:])
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int, ppi uint16) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return withJFIF(buf.Bytes(), ppi)
}
