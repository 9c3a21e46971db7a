package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drivestudy/annotator/internal/models"
)

// Clip naming convention: folders are named YYMMDD; clips inside are named
// <prefix>_<HHMMSS>_<HHMMSS>_<type>.mp4 where the two time fields are the
// recording's begin and end. Files that do not follow the convention are
// kept with zero times and type "Unknown".
const folderDateLayout = "060102"

// Scanner walks a data directory and turns the .mp4 files it finds into
// catalog entries.
type Scanner struct {
	log *zap.Logger
}

// NewScanner creates a filesystem scanner.
func NewScanner(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log}
}

// Scan walks root recursively and returns one Video per .mp4 file.
func (s *Scanner) Scan(root string) ([]models.Video, error) {
	var videos []models.Video
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".mp4") {
			return nil
		}
		folderDate, _ := time.Parse(folderDateLayout, filepath.Base(filepath.Dir(path)))
		v := ParseClip(d.Name(), folderDate)
		v.Path = path
		videos = append(videos, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	s.log.Info("data directory scanned", zap.String("root", root), zap.Int("videos", len(videos)))
	return videos, nil
}

// ParseClip derives begin/end times and the clip type from a file name and
// the date of its containing folder.
func ParseClip(name string, folderDate time.Time) models.Video {
	v := models.Video{FileName: name, Type: "Unknown"}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) != 4 || folderDate.IsZero() {
		return v
	}
	datePart := folderDate.Format("20060102")
	begin, errBegin := time.ParseInLocation("20060102T150405", datePart+"T"+parts[1], time.Local)
	end, errEnd := time.ParseInLocation("20060102T150405", datePart+"T"+parts[2], time.Local)
	if errBegin != nil || errEnd != nil {
		return v
	}
	v.BeginTime = begin
	v.EndTime = end
	v.Type = parts[3]
	return v
}
