package staging

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Each user has at most one staged workout, kept under a single redis key.
// Staging again simply overwrites the slot.
const stagedWorkoutKeyPrefix = "fitlog-staged-workout||"

var ErrNoStagedWorkout = errors.New("no staged workout")

type Repo struct {
	rdb *redis.Client
}

func NewRepo(rdb *redis.Client) *Repo {
	return &Repo{
		rdb: rdb,
	}
}

func stagedWorkoutKey(userID int) string {
	return fmt.Sprintf("%s%d", stagedWorkoutKeyPrefix, userID)
}

func (r *Repo) Store(ctx context.Context, userID int, payload []byte) error {
	if err := r.rdb.Set(ctx, stagedWorkoutKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store staged workout: %w", err)
	}
	return nil
}

func (r *Repo) Load(ctx context.Context, userID int) ([]byte, error) {
	data, err := r.rdb.Get(ctx, stagedWorkoutKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoStagedWorkout
		}
		return nil, fmt.Errorf("load staged workout: %w", err)
	}
	return data, nil
}

func (r *Repo) Delete(ctx context.Context, userID int) error {
	if err := r.rdb.Del(ctx, stagedWorkoutKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete staged workout: %w", err)
	}
	return nil
}
