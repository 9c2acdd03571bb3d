package plateau

import (
	"context"
	"sync"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global"} }

// Environment objects provide access to shared configuration and state:
// the worker queue that analyzes series in parallel and, when
// configured, the database client used by the mongodb importer.
type Environment interface {
	// Configure validates the configuration, starts a local queue
	// and, when a mongodb uri is set, connects to the database. The
	// queue runs until the context is canceled or Close is called.
	Configure(context.Context, *Configuration) error

	GetConf() (*Configuration, error)

	// GetQueue retrieves the application's shared queue.
	GetQueue() (amboy.Queue, error)
	// SetQueue caches a queue; it fails if one is already set.
	SetQueue(amboy.Queue) error

	GetClient() (*mongo.Client, error)
	GetDB() (*mongo.Database, error)

	Close(context.Context) error
}

type envState struct {
	name        string
	queue       amboy.Queue
	client      *mongo.Client
	conf        *Configuration
	cancelQueue context.CancelFunc
	newQueue    func(workers, capacity int) amboy.Queue
	mutex       sync.RWMutex
}

func (c *envState) Configure(ctx context.Context, conf *Configuration) error {
	if conf == nil {
		return errors.New("cannot configure the environment with a nil configuration")
	}
	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var client *mongo.Client
	if conf.MongoDB.URI != "" {
		var err error
		client, err = connect(ctx, conf.MongoDB)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if c.queue == nil {
		queueCtx, cancel := context.WithCancel(ctx)
		q := c.makeQueue(conf.NumWorkers)
		if err := q.Start(queueCtx); err != nil {
			cancel()
			disconnect(ctx, client)
			return errors.Wrap(err, "problem starting queue")
		}

		c.queue = q
		c.cancelQueue = cancel
		grip.Info(message.Fields{
			"message":  "configured local queue",
			"workers":  conf.NumWorkers,
			"capacity": QueueCapacity,
		})
	}

	if client != nil {
		c.setClient(ctx, client)
	}
	c.conf = conf
	return nil
}

func (c *envState) makeQueue(workers int) amboy.Queue {
	if c.newQueue != nil {
		return c.newQueue(workers, QueueCapacity)
	}
	return queue.NewLocalLimitedSize(workers, QueueCapacity)
}

// setClient replaces the cached client, disconnecting the previous one.
// The caller must hold the lock.
func (c *envState) setClient(ctx context.Context, client *mongo.Client) {
	if c.client != nil && c.client != client {
		disconnect(ctx, c.client)
	}
	c.client = client
}

func disconnect(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	grip.Warning(message.WrapError(client.Disconnect(ctx), message.Fields{
		"message": "problem disconnecting from db",
	}))
}

func connect(ctx context.Context, conf MongoDBConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(conf.URI).SetConnectTimeout(conf.DialTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to db %s", conf.URI)
	}

	pingCtx, cancel := context.WithTimeout(ctx, conf.DialTimeout)
	defer cancel()
	if err = client.Ping(pingCtx, nil); err != nil {
		grip.Warning(message.WrapError(client.Disconnect(ctx), message.Fields{
			"message": "problem disconnecting from unreachable db",
			"uri":     conf.URI,
		}))
		return nil, errors.Wrapf(err, "could not reach db %s", conf.URI)
	}

	grip.Info(message.Fields{
		"message":  "connected to db",
		"database": conf.Database,
	})
	return client, nil
}

func (c *envState) SetQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' environment", q, c.name)
	return nil
}

func (c *envState) GetQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.queue == nil {
		return nil, errors.New("no queue defined in the environment")
	}

	return c.queue, nil
}

func (c *envState) GetClient() (*mongo.Client, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil {
		return nil, errors.New("no database client configured")
	}

	return c.client, nil
}

func (c *envState) GetDB() (*mongo.Database, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil || c.conf == nil {
		return nil, errors.New("no database configured")
	}

	return c.client.Database(c.conf.MongoDB.Database), nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct
	out := &Configuration{}
	*out = *c.conf
	out.Tests = append([]TestConfig{}, c.conf.Tests...)

	return out, nil
}

func (c *envState) Close(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	catcher := grip.NewBasicCatcher()
	if c.cancelQueue != nil {
		c.cancelQueue()
		c.cancelQueue = nil
	}
	c.queue = nil

	if c.client != nil {
		catcher.Wrap(c.client.Disconnect(ctx), "problem disconnecting from db")
		c.client = nil
	}

	return catcher.Resolve()
}
