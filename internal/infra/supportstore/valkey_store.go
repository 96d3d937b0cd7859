package supportstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/support-assistant/internal/domain/support"
)

// ValkeyStore persists generated answers and trending counters in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "support"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) GetAnswer(ctx context.Context, key string) (support.AnswerRecord, bool, error) {
	if key == "" {
		return support.AnswerRecord{}, false, nil
	}
	cmd := s.client.B().Get().Key(s.answerKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return support.AnswerRecord{}, false, nil
		}
		return support.AnswerRecord{}, false, err
	}
	var record support.AnswerRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return support.AnswerRecord{}, false, err
	}
	return record, true, nil
}

func (s *ValkeyStore) SaveAnswer(ctx context.Context, record support.AnswerRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.answerKey(record.Key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(s.trendingKey()).Increment(1).Member(canonical).Build()).Error(); err != nil {
		return err
	}
	if display != "" {
		_ = s.client.Do(ctx, s.client.B().Set().Key(s.displayKey(canonical)).Value(display).Nx().Build()).Error()
	}
	return nil
}

func (s *ValkeyStore) TopQueries(ctx context.Context, limit int) ([]support.TrendingQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendingKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	pairs, err := decodeScoredMembers(arr)
	if err != nil {
		return nil, err
	}
	out := make([]support.TrendingQuery, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, support.TrendingQuery{Query: s.fetchDisplay(ctx, p.member), Count: int64(p.score)})
	}
	return out, nil
}

type scoredMember struct {
	member string
	score  float64
}

// decodeScoredMembers handles both the RESP3 [[member, score], ...] shape
// and the flat RESP2 alternating array.
func decodeScoredMembers(arr []valkey.ValkeyMessage) ([]scoredMember, error) {
	out := make([]scoredMember, 0, len(arr))
	for i := 0; i < len(arr); {
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			member, err := tuple[0].ToString()
			if err != nil {
				if valkey.IsValkeyNil(err) {
					i++
					continue
				}
				return nil, err
			}
			score, err := tuple[1].ToFloat64()
			if err != nil {
				return nil, err
			}
			out = append(out, scoredMember{member: member, score: score})
			i++
			continue
		}
		if i+1 >= len(arr) {
			break
		}
		member, err := arr[i].ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				i += 2
				continue
			}
			return nil, err
		}
		score, err := arr[i+1].ToFloat64()
		if err != nil {
			return nil, err
		}
		out = append(out, scoredMember{member: member, score: score})
		i += 2
	}
	return out, nil
}

func (s *ValkeyStore) fetchDisplay(ctx context.Context, canonical string) string {
	display, err := s.client.Do(ctx, s.client.B().Get().Key(s.displayKey(canonical)).Build()).ToString()
	if err != nil || display == "" {
		return canonical
	}
	return display
}

func (s *ValkeyStore) answerKey(key string) string {
	return fmt.Sprintf("%s:answer:%s", s.prefix, key)
}

func (s *ValkeyStore) trendingKey() string {
	return fmt.Sprintf("%s:trending", s.prefix)
}

func (s *ValkeyStore) displayKey(canonical string) string {
	return fmt.Sprintf("%s:display:%s", s.prefix, canonical)
}

var _ support.Store = (*ValkeyStore)(nil)
