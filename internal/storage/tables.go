package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// tableWait bounds how long a freshly created table may take to turn ACTIVE
const tableWait = 30 * time.Second

// tableAPI is the subset of the DynamoDB client the bootstrap needs
type tableAPI interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureCacheTable creates the metrics cache table when it is missing and
// waits until it can take writes. Used in local mode only; AWS tables are
// provisioned outside the service.
func EnsureCacheTable(ctx context.Context, client tableAPI, table string, logger zerolog.Logger) error {
	describe := &dynamodb.DescribeTableInput{TableName: aws.String(table)}

	_, err := client.DescribeTable(ctx, describe)
	if err == nil {
		logger.Debug().Str("table", table).Msg("cache table present")
		return nil
	}
	var notFound *dbtypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", table, err)
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String(cacheKeyAttr), KeyType: dbtypes.KeyTypeHash},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String(cacheKeyAttr), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *dbtypes.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		// another instance created it first
	}

	waiter := dynamodb.NewTableExistsWaiter(client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = 500 * time.Millisecond
		o.MaxDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, describe, tableWait); err != nil {
		return fmt.Errorf("table %s did not become active: %w", table, err)
	}

	logger.Info().Str("table", table).Msg("cache table created")
	return nil
}
