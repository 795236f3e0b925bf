package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"colorize/api/internal/storage"
)

const (
	thumbSize       = 256
	avatarRetention = 30 * 24 * time.Hour
)

type Processor struct {
	store  *storage.ObjectStore
	logger zerolog.Logger
}

type TaskPayload struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Object string `json:"object"`
}

func NewProcessor(store *storage.ObjectStore, logger zerolog.Logger) *Processor {
	return &Processor{
		store:  store,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "avatar":
		return p.handleAvatar(ctx, payload)
	case "cleanup":
		return p.handleCleanup(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// handleAvatar renders a square thumbnail for a freshly uploaded avatar
// next to the original under thumbs/.
func (p *Processor) handleAvatar(ctx context.Context, payload TaskPayload) error {
	if payload.Object == "" {
		p.logger.Warn().Str("user_id", payload.UserID).Msg("avatar task without object key")
		return nil
	}

	data, err := p.store.GetAvatar(ctx, payload.Object)
	if err != nil {
		return fmt.Errorf("fetch avatar %s: %w", payload.Object, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode avatar %s: %w", payload.Object, err)
	}

	thumb := imaging.Fill(img, thumbSize, thumbSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	key := thumbKey(payload.Object)
	if _, err := p.store.PutAvatar(ctx, key, buf.Bytes(), "image/png"); err != nil {
		return fmt.Errorf("store thumbnail %s: %w", key, err)
	}

	p.logger.Info().
		Str("user_id", payload.UserID).
		Str("object", key).
		Msg("avatar thumbnail generated")
	return nil
}

// handleCleanup drops superseded avatar uploads. The newest object per user
// stays; older ones go once they pass the retention window.
func (p *Processor) handleCleanup(ctx context.Context, _ TaskPayload) error {
	infos, err := p.store.ListAvatars(ctx, "avatars/")
	if err != nil {
		return err
	}

	byUser := make(map[string][]int)
	for i, info := range infos {
		if strings.Contains(info.Key, "/thumbs/") {
			continue
		}
		byUser[ownerOf(info.Key)] = append(byUser[ownerOf(info.Key)], i)
	}

	removed := 0
	cutoff := time.Now().Add(-avatarRetention)
	for _, idxs := range byUser {
		sort.Slice(idxs, func(a, b int) bool {
			return infos[idxs[a]].LastModified.After(infos[idxs[b]].LastModified)
		})
		for _, i := range idxs[1:] {
			info := infos[i]
			if info.LastModified.After(cutoff) {
				continue
			}
			if err := p.store.RemoveAvatar(ctx, info.Key); err != nil {
				p.logger.Error().Err(err).Str("object", info.Key).Msg("remove stale avatar failed")
				continue
			}
			if err := p.store.RemoveAvatar(ctx, thumbKey(info.Key)); err != nil {
				p.logger.Debug().Err(err).Str("object", info.Key).Msg("stale avatar had no thumbnail")
			}
			removed++
		}
	}

	p.logger.Info().Int("removed", removed).Msg("avatar cleanup done")
	return nil
}

func thumbKey(objectKey string) string {
	dir, name := path.Split(objectKey)
	return dir + "thumbs/" + name
}

// ownerOf extracts the user id from keys shaped avatars/<userID>-<unix>.<ext>.
func ownerOf(objectKey string) string {
	name := path.Base(objectKey)
	if i := strings.LastIndex(name, "-"); i > 0 {
		return name[:i]
	}
	return name
}
