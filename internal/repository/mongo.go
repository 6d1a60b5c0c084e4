package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/common"
)

const jobsCollection = "jobs"

// Config mirrors common.StoreConfig without importing it, so the repository
// package stays wiring-agnostic.
type Config struct {
	URI         string
	Database    string
	JobsTTL     time.Duration
	DialTimeout time.Duration
}

// Open connects a Mongo client and pings it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*mongo.Client, error) {
	logger.Info("connecting to job store", "db", cfg.Database)
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error("failed to connect to job store", "error", err)
		return nil, common.NewStoreUnavailableError(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("job store ping failed", "error", err)
		_ = client.Disconnect(context.Background())
		return nil, common.NewStoreUnavailableError(err)
	}
	logger.Info("successfully connected to job store")
	return client, nil
}

// Close disconnects the client gracefully.
func Close(client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	logger.Info("closing job store connection")
	if err := client.Disconnect(context.Background()); err != nil {
		logger.Error("failed to disconnect job store", "error", err)
	}
}

// HealthCheck pings the deployment to catch connectivity issues early.
func HealthCheck(ctx context.Context, client *mongo.Client, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging job store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(ctx, nil); err != nil {
		return common.NewStoreUnavailableError(err)
	}
	logger.Debug("job store ping successful")
	return nil
}

type mongoJobStore struct {
	jobs *mongo.Collection
	ttl  time.Duration
	log  *slog.Logger
}

// NewMongoJobStore returns a JobStore backed by the jobs collection.
func NewMongoJobStore(client *mongo.Client, database string, ttl time.Duration, logger *slog.Logger) JobStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &mongoJobStore{
		jobs: client.Database(database).Collection(jobsCollection),
		ttl:  ttl,
		log:  logger,
	}
}

// EnsureIndexes creates the TTL index on expiresAt and the createdAt listing
// index. Call once at startup; it is idempotent.
func EnsureIndexes(ctx context.Context, client *mongo.Client, database string) error {
	jobs := client.Database(database).Collection(jobsCollection)
	_, err := jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: 1}},
		},
	})
	if err != nil {
		return common.NewStoreUnavailableError(err)
	}
	return nil
}

func (s *mongoJobStore) Create(ctx context.Context, jobID string, settings JobSettings) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        jobID,
		Status:    constants.JobStatusCreated,
		Step:      constants.JobStepValidate,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Settings:  settings,
	}
	if _, err := s.jobs.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.log.Error("job id collision", "job_id", jobID)
			return nil, common.NewAppError(common.CodeConflict, "job already exists: "+jobID, err)
		}
		s.log.Error("job create failed", "job_id", jobID, "error", err)
		return nil, common.NewStoreUnavailableError(err)
	}
	s.log.Info("job created", "job_id", jobID)
	return job, nil
}

func (s *mongoJobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := s.jobs.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("job not found: %s", jobID)
	}
	if err != nil {
		s.log.Error("job get failed", "job_id", jobID, "error", err)
		return nil, common.NewStoreUnavailableError(err)
	}
	return &job, nil
}

func (s *mongoJobStore) Update(ctx context.Context, jobID string, upd JobUpdate) (*Job, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Step != nil {
		set["step"] = *upd.Step
	}
	if upd.Progress != nil {
		set["progress"] = *upd.Progress
	}
	if upd.Error != nil {
		set["error"] = *upd.Error
	}
	// Nested maps merge key-by-key via dotted paths so sibling fields written
	// by earlier stages survive.
	for k, v := range upd.Input {
		set["input."+k] = v
	}
	for k, v := range upd.Output {
		set["output."+k] = v
	}

	var job Job
	err := s.jobs.FindOneAndUpdate(
		ctx,
		bson.M{"_id": jobID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("job not found: %s", jobID)
	}
	if err != nil {
		s.log.Error("job update failed", "job_id", jobID, "error", err)
		return nil, common.NewStoreUnavailableError(err)
	}
	return &job, nil
}

func (s *mongoJobStore) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := s.jobs.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		s.log.Error("job list failed", "error", err)
		return nil, common.NewStoreUnavailableError(err)
	}
	defer cur.Close(ctx)

	var jobs []Job
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}
	return jobs, nil
}
