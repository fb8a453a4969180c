// Package version держит объявленную версию пакета и проверку релизного тега.
package version

import (
	"fmt"
	"strings"

	"github.com/vektalab/embedviz/pkg/e"
)

// Version — объявленная версия пакета. Публикация релиза допускается
// только если git-тег release-X.Y.Z совпадает с этим значением.
const Version = "1.2.3"

const tagPrefix = "release-"

// FromTag извлекает версию из релизного тега вида "release-X.Y.Z".
func FromTag(tag string) (string, error) {
	if !strings.HasPrefix(tag, tagPrefix) {
		return "", e.Wrap(fmt.Sprintf("tag %q", tag), e.ErrInvalidReleaseTag)
	}

	v := strings.TrimPrefix(tag, tagPrefix)
	if v == "" {
		return "", e.Wrap(fmt.Sprintf("tag %q", tag), e.ErrInvalidReleaseTag)
	}

	return v, nil
}

// CheckTag сравнивает релизный тег с объявленной версией пакета.
// Несовпадение — ошибка, публикация должна быть прервана.
func CheckTag(tag, declared string) error {
	tagged, err := FromTag(tag)
	if err != nil {
		return err
	}

	if tagged != declared {
		return e.Wrap(fmt.Sprintf("tag version %q, declared version %q", tagged, declared), e.ErrVersionMismatch)
	}

	return nil
}
