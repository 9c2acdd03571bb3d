package plateau

import (
	"context"
	"testing"
	"time"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type unstartableQueue struct {
	amboy.Queue
}

func (q *unstartableQueue) Start(context.Context) error { return errors.New("cannot start") }

// lazyClient builds a client without contacting a server.
func lazyClient(ctx context.Context, t *testing.T) *mongo.Client {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:1"))
	require.NoError(t, err)
	return client
}

func TestGlobalEnvironment(t *testing.T) {
	assert.Exactly(t, globalEnv, GetEnvironment())

	first := GetEnvironment()
	first.(*envState).name = "foo"
	assert.Exactly(t, globalEnv, GetEnvironment())

	resetEnv()
	second := GetEnvironment()
	assert.NotEqual(t, first, second)
}

func TestEnvironmentConfiguration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for name, test := range map[string]func(t *testing.T, env *envState, conf *Configuration){
		"ErrorsWithNilConfig": func(t *testing.T, env *envState, conf *Configuration) {
			assert.Error(t, env.Configure(ctx, nil))
		},
		"ErrorsForInvalidConfig": func(t *testing.T, env *envState, conf *Configuration) {
			conf.Bucket.Type = "invalid"
			assert.Error(t, env.Configure(ctx, conf))
			_, err := env.GetConf()
			assert.Error(t, err)
		},
		"ErrorsWithMongoDBThatDoesNotExist": func(t *testing.T, env *envState, conf *Configuration) {
			conf.MongoDB = MongoDBConfig{
				URI:         "mongodb://localhost:1",
				Database:    "plateau_test",
				DialTimeout: 10 * time.Millisecond,
			}
			assert.Error(t, env.Configure(ctx, conf))
		},
		"ConfiguresLocalQueue": func(t *testing.T, env *envState, conf *Configuration) {
			require.NoError(t, env.Configure(ctx, conf))
			q, err := env.GetQueue()
			require.NoError(t, err)
			assert.NotNil(t, q)

			out, err := env.GetConf()
			require.NoError(t, err)
			assert.Equal(t, 2, out.NumWorkers)
			assert.NotSame(t, conf, out)

			_, err = env.GetClient()
			assert.Error(t, err)
			_, err = env.GetDB()
			assert.Error(t, err)

			assert.NoError(t, env.Close(ctx))
			_, err = env.GetQueue()
			assert.Error(t, err)
		},
		"QueueNotSettableToNil": func(t *testing.T, env *envState, conf *Configuration) {
			assert.Error(t, env.SetQueue(nil))

			q := queue.NewLocalLimitedSize(2, 16)
			require.NoError(t, env.SetQueue(q))
			assert.Error(t, env.SetQueue(q))

			retrieved, err := env.GetQueue()
			require.NoError(t, err)
			assert.Equal(t, q, retrieved)
		},
		"KeepsExistingQueue": func(t *testing.T, env *envState, conf *Configuration) {
			q := queue.NewLocalLimitedSize(2, 16)
			require.NoError(t, env.SetQueue(q))
			require.NoError(t, env.Configure(ctx, conf))

			retrieved, err := env.GetQueue()
			require.NoError(t, err)
			assert.Equal(t, q, retrieved)
		},
		"FailedQueueStartLeavesNoState": func(t *testing.T, env *envState, conf *Configuration) {
			env.newQueue = func(workers, capacity int) amboy.Queue {
				return &unstartableQueue{Queue: queue.NewLocalLimitedSize(workers, capacity)}
			}
			assert.Error(t, env.Configure(ctx, conf))

			_, err := env.GetQueue()
			assert.Error(t, err)
			_, err = env.GetConf()
			assert.Error(t, err)
			_, err = env.GetClient()
			assert.Error(t, err)
		},
		"ReplacingClientDisconnectsPrevious": func(t *testing.T, env *envState, conf *Configuration) {
			first := lazyClient(ctx, t)
			second := lazyClient(ctx, t)

			env.setClient(ctx, first)
			env.setClient(ctx, second)
			assert.ErrorIs(t, first.Disconnect(ctx), mongo.ErrClientDisconnected)

			client, err := env.GetClient()
			require.NoError(t, err)
			assert.Same(t, second, client)

			env.setClient(ctx, second)
			require.NoError(t, env.Close(ctx))
			assert.ErrorIs(t, second.Disconnect(ctx), mongo.ErrClientDisconnected)
		},
		"DisconnectToleratesNilClient": func(t *testing.T, env *envState, conf *Configuration) {
			assert.NotPanics(t, func() { disconnect(ctx, nil) })
		},
	} {
		t.Run(name, func(t *testing.T) {
			env := &envState{name: "plateau.testing"}
			conf := &Configuration{NumWorkers: 2}
			test(t, env, conf)
		})
	}
}
