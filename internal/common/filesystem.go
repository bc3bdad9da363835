package common

import (
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

func MkdirForFile(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return nil
}

// OpenTempFile creates a unique sibling of fullPath for atomic temp-file
// + rename writes. The suffix is a uuid rather than a PRNG int so that
// concurrent cache-store writers across processes never collide.
func OpenTempFile(fullPath string) (f *os.File, err error) {
	fileNameTmp := fullPath + "." + uuid.NewString()
	return os.OpenFile(fileNameTmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, os.ModePerm)
}

func ReplaceFileExt(fileName string, newExt string) string {
	logExt := path.Ext(fileName)
	return fileName[0:len(fileName)-len(logExt)] + newExt
}
