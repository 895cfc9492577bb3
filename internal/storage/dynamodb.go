package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

const (
	cacheKeyAttr = "CacheKey"
	// LatestKey is the single item holding the most recent metrics
	LatestKey = "latest"
)

// DynamoCache implements Cache using AWS DynamoDB
type DynamoCache struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoCache creates a new DynamoDB backed cache
func NewDynamoCache(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoCache, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// Build the client directly: LoadDefaultConfig queries the EC2 IMDS
		// endpoint, which hangs when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	cache := &DynamoCache{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.CreateTable {
		if err := EnsureCacheTable(ctx, client, cfg.CacheTable, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.CacheTable).
		Msg("DynamoDB cache initialized")

	return cache, nil
}

// NewCache creates the appropriate cache based on configuration
func NewCache(ctx context.Context, logger zerolog.Logger) (Cache, error) {
	cfg, err := LoadDynamoConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Remote() {
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none)")
		return NewNoopCache(), nil
	}
	return NewDynamoCache(ctx, cfg, logger)
}

// Save replaces the cached metrics
func (c *DynamoCache) Save(ctx context.Context, metrics types.CachedMetrics) error {
	metrics.CacheKey = LatestKey
	if metrics.CachedAt == "" {
		metrics.CachedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal cached metrics: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.config.CacheTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save cached metrics: %w", err)
	}

	c.logger.Debug().
		Str("file", metrics.FileName).
		Int("skill_groups", len(metrics.SkillGroups)).
		Msg("metrics cached")
	return nil
}

// Get returns the cached metrics, or nil when nothing is cached
func (c *DynamoCache) Get(ctx context.Context) (*types.CachedMetrics, error) {
	key, err := latestKey()
	if err != nil {
		return nil, err
	}

	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.config.CacheTable),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cached metrics: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	var metrics types.CachedMetrics
	if err := attributevalue.UnmarshalMap(result.Item, &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached metrics: %w", err)
	}
	return &metrics, nil
}

// Clear removes the cached metrics. Clearing an empty cache is not an error.
func (c *DynamoCache) Clear(ctx context.Context) error {
	key, err := latestKey()
	if err != nil {
		return err
	}

	cond := expression.AttributeExists(expression.Name(cacheKeyAttr))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(c.config.CacheTable),
		Key:                      key,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	var notFound *dbtypes.ConditionalCheckFailedException
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to clear cached metrics: %w", err)
	}

	c.logger.Info().Str("table", c.config.CacheTable).Msg("metrics cache cleared")
	return nil
}

func latestKey() (map[string]dbtypes.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{cacheKeyAttr: LatestKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache key: %w", err)
	}
	return key, nil
}
