// Package backup keeps exported snapshots on disk, one directory per account.
package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

// stampLayout sorts lexically in time order.
const stampLayout = "20060102T150405.000Z"

// Archive stores snapshots under keys of the form "<flyid>/<stamp>".
type Archive struct {
	d   *diskv.Diskv
	now func() time.Time
}

func Open(dir string) *Archive {
	return &Archive{
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      1024 * 1024,
		}),
		now: time.Now,
	}
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pk.Path...), pk.FileName), "/")
}

// Save writes a snapshot and returns its key.
func (a *Archive) Save(flyID string, snapshot []byte) (string, error) {
	if flyID == "" || strings.Contains(flyID, "/") {
		return "", fmt.Errorf("invalid account id %q", flyID)
	}
	at := a.now().UTC()
	key := flyID + "/" + at.Format(stampLayout)
	for a.d.Has(key) {
		at = at.Add(time.Millisecond)
		key = flyID + "/" + at.Format(stampLayout)
	}
	if err := a.d.Write(key, snapshot); err != nil {
		return "", fmt.Errorf("write backup %s: %w", key, err)
	}
	return key, nil
}

// List returns the account's backup keys, newest first.
func (a *Archive) List(ctx context.Context, flyID string) []string {
	var keys []string
	for key := range a.d.KeysPrefix(flyID+"/", ctx.Done()) {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

func (a *Archive) Read(key string) ([]byte, error) {
	data, err := a.d.Read(key)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", key, err)
	}
	return data, nil
}

// Latest returns the newest backup of the account.
func (a *Archive) Latest(ctx context.Context, flyID string) (string, []byte, error) {
	keys := a.List(ctx, flyID)
	if len(keys) == 0 {
		return "", nil, errors.New("no backups")
	}
	data, err := a.Read(keys[0])
	return keys[0], data, err
}

// Prune deletes all but the newest keep backups and returns how many it
// removed.
func (a *Archive) Prune(ctx context.Context, flyID string, keep int) (int, error) {
	keys := a.List(ctx, flyID)
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for i := keep; i < len(keys); i++ {
		if err := a.d.Erase(keys[i]); err != nil {
			return removed, fmt.Errorf("erase backup %s: %w", keys[i], err)
		}
		removed++
	}
	return removed, nil
}

// Taken parses the time a backup was written from its key.
func Taken(key string) (time.Time, error) {
	i := strings.LastIndex(key, "/")
	return time.Parse(stampLayout, key[i+1:])
}

// Owns reports whether key is an existing backup of the account.
func (a *Archive) Owns(flyID, key string) bool {
	return flyID != "" && strings.HasPrefix(key, flyID+"/") && a.d.Has(key)
}
