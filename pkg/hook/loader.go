package hook

import (
	"os"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
)

// LoadFromFiles reads hook scripts from the given paths and registers them.
// Empty paths are skipped, so the map can be built straight from config.
func LoadFromFiles(manager HookManager, paths map[HookType]string) error {
	for hookType, path := range paths {
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "%s: %v", path, err)
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errors.Wrapf(err, "error adding hook %s", hookType)
		}
	}
	return nil
}
