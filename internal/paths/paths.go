package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JobPaths captures canonical locations inside one render job directory.
// Uploaded inputs sit next to the output and metadata so removing Root
// removes the whole job.
type JobPaths struct {
	Root       string
	StateFile  string
	OutputFile string
	LogFile    string
}

// JobDir lays out the directory for a job id under the jobs root.
func JobDir(base, id string) JobPaths {
	root := filepath.Join(base, id)
	return JobPaths{
		Root:       root,
		StateFile:  filepath.Join(root, "job.json"),
		OutputFile: filepath.Join(root, "out.mp4"),
		LogFile:    filepath.Join(root, "render.log"),
	}
}

// InputFile names the i-th uploaded clip (zero-based) inside the job
// directory. ext keeps the upload's extension, ".bin" when it had none.
func (p JobPaths) InputFile(i int, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	return filepath.Join(p.Root, fmt.Sprintf("video%d%s", i+1, ext))
}

// EnsureRoot makes sure the job directory exists on disk.
func (p JobPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create job dir: %w", err)
	}
	return nil
}

// DefaultJobsRoot is where the HTTP service keeps job directories unless
// configured otherwise.
func DefaultJobsRoot() string {
	return filepath.Join(os.TempDir(), "sidestack-jobs")
}

// DefaultConfigFile is where the CLI looks for configuration when
// --config is not given. Loading tolerates the file being absent.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sidestack.yaml"
	}
	return filepath.Join(dir, "sidestack", "config.yaml")
}

// ExpandUser replaces a leading ~ with the current user's home directory.
// Paths it cannot expand come back unchanged.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Absolute expands a leading ~ and makes the path absolute.
func Absolute(path string) string {
	path = ExpandUser(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
