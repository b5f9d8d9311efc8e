// Package walk enumerates hashing candidates beneath input paths, tagging
// symlinks so the caller can apply its symlink policy, and guarding against
// symlink cycles when following is enabled.
package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one traversal candidate. Path is reported as reached — through
// the link name, not the resolved target — so report rows match what the
// user can see on disk.
type Entry struct {
	Path string

	// Symlink marks entries reached through a symbolic link while following
	// is disabled. The caller reports these instead of hashing them.
	Symlink bool
}

// Walk enumerates candidates for one input path in lexical order, calling fn
// for each. A file yields itself; a directory yields every file beneath it.
// With follow disabled every symlink encountered is yielded tagged and
// symlinked directories are not descended. With follow enabled symlinks
// resolve transparently and a visited set breaks directory cycles; broken
// symlinks are yielded untagged so hashing reports them as missing files.
//
// A nonexistent input surfaces as the Lstat error (fs.ErrNotExist).
func Walk(root string, follow bool, fn func(Entry) error) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if !follow {
			return fn(Entry{Path: root, Symlink: true})
		}

		resolved, err := os.Stat(root)
		if err != nil {
			// Broken link: hand it to the hasher, which reports it missing.
			return fn(Entry{Path: root})
		}

		if resolved.IsDir() {
			return walkDir(root, follow, map[string]struct{}{}, fn)
		}

		return fn(Entry{Path: root})
	}

	if info.IsDir() {
		return walkDir(root, follow, map[string]struct{}{}, fn)
	}

	return fn(Entry{Path: root})
}

// walkDir descends one directory. chain holds the resolved paths of the
// directories currently being descended; finding the same physical
// directory twice on one chain is a symlink cycle and stops that branch.
// Two links to the same directory from different branches both traverse.
func walkDir(dir string, follow bool, chain map[string]struct{}, fn func(Entry) error) error {
	if follow {
		// Resolution failures leave the node unguarded rather than
		// aborting the walk.
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			if _, ok := chain[real]; ok {
				return nil
			}

			chain[real] = struct{}{}
			defer delete(chain, real)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	for _, de := range entries {
		path := filepath.Join(dir, de.Name())

		switch {
		case de.Type()&fs.ModeSymlink != 0:
			if err := walkLink(path, follow, chain, fn); err != nil {
				return err
			}
		case de.IsDir():
			if err := walkDir(path, follow, chain, fn); err != nil {
				return err
			}
		case de.Type().IsRegular():
			if err := fn(Entry{Path: path}); err != nil {
				return err
			}
		default:
			// Sockets, FIFOs and devices inside directories are not
			// hashing candidates.
		}
	}

	return nil
}

// walkLink applies the symlink policy to one in-directory link.
func walkLink(path string, follow bool, chain map[string]struct{}, fn func(Entry) error) error {
	if !follow {
		return fn(Entry{Path: path, Symlink: true})
	}

	target, err := os.Stat(path)
	if err != nil {
		return fn(Entry{Path: path})
	}

	if target.IsDir() {
		return walkDir(path, follow, chain, fn)
	}

	return fn(Entry{Path: path})
}
