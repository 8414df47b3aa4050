package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type workspace struct {
	jobID string
	dir   string
	inDir string
}

func (w workspace) manifestPath() string {
	return filepath.Join(w.dir, manifestFilename)
}

func (s *Service) createWorkspace() (workspace, error) {
	ws := s.workspaceFor(uuid.NewString())
	if err := os.MkdirAll(ws.inDir, 0o750); err != nil {
		return workspace{}, fmt.Errorf("ジョブ用ディレクトリの作成に失敗しました: %w", err)
	}
	return ws, nil
}

func (s *Service) workspaceFor(jobID string) workspace {
	dir := filepath.Join(s.workDir(), jobID)
	return workspace{
		jobID: jobID,
		dir:   dir,
		inDir: filepath.Join(dir, "in"),
	}
}

func (s *Service) workDir() string {
	if s.cfg != nil && s.cfg.WorkDir != "" {
		return s.cfg.WorkDir
	}
	return filepath.Join(os.TempDir(), "image-forge")
}

func removeDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
