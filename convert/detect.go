package convert

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

const (
	exportExt = ".rwexport"
	// enough to get past xml declaration and leading comments
	sniffLen = 1024
)

var exportType = filetype.NewType("rwexport", "application/x-rwexport+xml")

func init() {
	filetype.AddMatcher(exportType, matchExport)
}

// matchExport recognizes XML document which root element is "export".
func matchExport(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	for {
		buf = bytes.TrimLeft(buf, " \t\r\n")
		switch {
		case bytes.HasPrefix(buf, []byte("<?")):
			i := bytes.Index(buf, []byte("?>"))
			if i < 0 {
				return false
			}
			buf = buf[i+2:]
		case bytes.HasPrefix(buf, []byte("<!--")):
			i := bytes.Index(buf, []byte("-->"))
			if i < 0 {
				return false
			}
			buf = buf[i+3:]
		case bytes.HasPrefix(buf, []byte("<!")):
			i := bytes.IndexByte(buf, '>')
			if i < 0 {
				return false
			}
			buf = buf[i+1:]
		default:
			if !bytes.HasPrefix(buf, []byte("<export")) || len(buf) == len("<export") {
				return false
			}
			switch buf[len("<export")] {
			case '>', ' ', '\t', '\r', '\n', '/':
				return true
			}
			return false
		}
	}
}

func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isExportFile checks file name first and falls back to content sniffing for
// exports saved under generic names.
func isExportFile(path string) (bool, error) {
	if strings.EqualFold(filepath.Ext(path), exportExt) {
		return true, nil
	}
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	return isExportData(head), nil
}

func isExportData(head []byte) bool {
	return filetype.IsType(head, exportType)
}

func isExportName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), exportExt)
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
