// Package redisgw implements the gateway contract on top of Redis. Records
// are hashes so the like counter can ride HINCRBY, which is the server-side
// atomic adjustment the contract demands. Change notification is a single
// pub/sub channel carrying the changed path; subscribers re-read their node
// and push the full value, which preserves the full-snapshot semantics.
package redisgw

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/utils/log"
)

const (
	recordPrefix   = "hb:record:"
	childrenPrefix = "hb:children:"
	childSetPrefix = "hb:childset:"
	authPrefix     = "hb:auth:"
	changedChannel = "hb:changed"
)

type authRecord struct {
	Hash []byte `json:"hash"`
	UID  string `json:"uid"`
}

type Gateway struct {
	inner *redis.Client

	mu       sync.Mutex
	uid      string
	signedIn bool
}

// New connects using the REDIS_HOST / REDIS_PORT / REDIS_PASSWD environment
// variables (loaded by utils/dotenv) and pings before returning.
func New(ctx context.Context) (*Gateway, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "connect redis")
	}
	return &Gateway{inner: client}, nil
}

func (g *Gateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	raw, err := g.inner.Get(ctx, authPrefix+email).Result()
	if err == redis.Nil {
		return "", &gateway.AuthError{Message: "There is no user record corresponding to this identifier. The user may have been deleted."}
	}
	if err != nil {
		return "", errors.Wrap(err, "read credentials")
	}

	var cred authRecord
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return "", errors.Wrap(err, "decode credentials")
	}
	if bcrypt.CompareHashAndPassword(cred.Hash, []byte(password)) != nil {
		return "", &gateway.AuthError{Message: "The password is invalid or the user does not have a password."}
	}

	g.mu.Lock()
	g.uid = cred.UID
	g.signedIn = true
	g.mu.Unlock()
	return cred.UID, nil
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	cred := authRecord{Hash: hash, UID: uuid.New().String()}
	raw, err := json.Marshal(cred)
	if err != nil {
		return "", err
	}

	created, err := g.inner.SetNX(ctx, authPrefix+email, raw, 0).Result()
	if err != nil {
		return "", errors.Wrap(err, "store credentials")
	}
	if !created {
		return "", &gateway.AuthError{Message: "The email address is already in use by another account."}
	}
	return cred.UID, nil
}

func (g *Gateway) CurrentUserID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uid, g.signedIn
}

func (g *Gateway) TerminateSession() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uid = ""
	g.signedIn = false
}

func (g *Gateway) Subscribe(ctx context.Context, path string) (<-chan gateway.Snapshot, error) {
	path = gateway.NormalizePath(path)
	pubsub := g.inner.Subscribe(ctx, changedChannel)

	// Confirm the subscription before the initial read so no commit between
	// the two is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.Wrap(err, "subscribe changes")
	}

	ch := make(chan gateway.Snapshot, 1)

	go func() {
		defer close(ch)
		defer pubsub.Close()

		g.pushSnapshot(ctx, path, ch)

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if !gateway.PathsOverlap(path, msg.Payload) {
					continue
				}
				g.pushSnapshot(ctx, path, ch)
			}
		}
	}()

	return ch, nil
}

func (g *Gateway) pushSnapshot(ctx context.Context, path string, ch chan gateway.Snapshot) {
	snap, err := g.read(ctx, path)
	if err != nil {
		// Read failures are diagnostic only; the subscriber keeps its last
		// successfully received value.
		log.Log.WithError(err).WithField("path", path).Error("subscription read failed")
		return
	}
	gateway.CoalescedSend(ch, snap)
}

func (g *Gateway) Write(ctx context.Context, path string, value interface{}) error {
	path = gateway.NormalizePath(path)
	segments := gateway.SplitPath(path)

	switch len(segments) {
	case 2:
		if value == nil {
			if err := g.deleteRecord(ctx, segments); err != nil {
				return err
			}
		} else {
			record, ok := value.(map[string]interface{})
			if !ok {
				return errors.Errorf("record write to %s requires an object value", path)
			}
			if err := g.writeRecord(ctx, segments, record); err != nil {
				return err
			}
		}
	case 3:
		field := segments[2]
		if err := g.inner.HSet(ctx, recordKey(segments[:2]), field, encodeField(value)).Err(); err != nil {
			return errors.Wrapf(err, "write field %s", path)
		}
	default:
		return errors.Errorf("unsupported write depth for path %s", path)
	}

	return g.publishChange(ctx, path)
}

func (g *Gateway) AtomicIncrement(ctx context.Context, path string, delta int64) error {
	path = gateway.NormalizePath(path)
	segments := gateway.SplitPath(path)
	if len(segments) != 3 {
		return errors.Errorf("unsupported increment depth for path %s", path)
	}

	if err := g.inner.HIncrBy(ctx, recordKey(segments[:2]), segments[2], delta).Err(); err != nil {
		return errors.Wrapf(err, "increment %s", path)
	}
	return g.publishChange(ctx, path)
}

func (g *Gateway) publishChange(ctx context.Context, path string) error {
	return errors.Wrap(g.inner.Publish(ctx, changedChannel, path).Err(), "publish change")
}

func (g *Gateway) writeRecord(ctx context.Context, segments []string, record map[string]interface{}) error {
	key := recordKey(segments)
	fields := map[string]interface{}{}
	for k, v := range record {
		fields[k] = encodeField(v)
	}

	pipe := g.inner.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "write record %s", key)
	}

	// Track enumeration order: first insert appends to the container list.
	container := "/" + segments[0]
	added, err := g.inner.SAdd(ctx, childSetPrefix+container, segments[1]).Result()
	if err != nil {
		return errors.Wrap(err, "track child")
	}
	if added == 1 {
		if err := g.inner.RPush(ctx, childrenPrefix+container, segments[1]).Err(); err != nil {
			return errors.Wrap(err, "track child order")
		}
	}
	return nil
}

func (g *Gateway) deleteRecord(ctx context.Context, segments []string) error {
	container := "/" + segments[0]
	pipe := g.inner.TxPipeline()
	pipe.Del(ctx, recordKey(segments))
	pipe.SRem(ctx, childSetPrefix+container, segments[1])
	pipe.LRem(ctx, childrenPrefix+container, 0, segments[1])
	_, err := pipe.Exec(ctx)
	return errors.Wrapf(err, "delete record %s", recordKey(segments))
}

func (g *Gateway) read(ctx context.Context, path string) (gateway.Snapshot, error) {
	segments := gateway.SplitPath(path)
	snap := gateway.Snapshot{Path: path}

	switch len(segments) {
	case 1:
		keys, err := g.inner.LRange(ctx, childrenPrefix+path, 0, -1).Result()
		if err != nil {
			return snap, errors.Wrap(err, "enumerate children")
		}
		if len(keys) == 0 {
			return snap, nil
		}
		value := map[string]interface{}{}
		for _, key := range keys {
			record, err := g.readRecord(ctx, []string{segments[0], key})
			if err != nil {
				return snap, err
			}
			if record != nil {
				value[key] = record
				snap.Keys = append(snap.Keys, key)
			}
		}
		snap.Value = value
	case 2:
		record, err := g.readRecord(ctx, segments)
		if err != nil {
			return snap, err
		}
		if record != nil {
			snap.Value = record
		}
	case 3:
		raw, err := g.inner.HGet(ctx, recordKey(segments[:2]), segments[2]).Result()
		if err == redis.Nil {
			return snap, nil
		}
		if err != nil {
			return snap, errors.Wrapf(err, "read field %s", path)
		}
		snap.Value = decodeField(raw)
	default:
		return snap, errors.Errorf("unsupported read depth for path %s", path)
	}

	return snap, nil
}

func (g *Gateway) readRecord(ctx context.Context, segments []string) (map[string]interface{}, error) {
	raw, err := g.inner.HGetAll(ctx, recordKey(segments)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read record %s", recordKey(segments))
	}
	if len(raw) == 0 {
		return nil, nil
	}
	record := map[string]interface{}{}
	for k, v := range raw {
		record[k] = decodeField(v)
	}
	return record, nil
}

func recordKey(segments []string) string {
	return recordPrefix + "/" + segments[0] + "/" + segments[1]
}

// encodeField stores a field as its JSON encoding. Numbers encode to bare
// decimals, which is exactly what HINCRBY needs for the like counter.
func encodeField(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func decodeField(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		// Pre-existing plain strings land here; treat them as-is.
		return raw
	}
	return v
}
