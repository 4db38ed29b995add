// Package dataapi executes statements through the Amazon RDS Data API.
package dataapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"

	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/sqlgen"
)

// ErrInvalidOptions is returned when connection options are incomplete.
var ErrInvalidOptions = errors.New("invalid data api connection options")

// ConnectionOptions identify the database cluster and its credentials secret.
type ConnectionOptions struct {
	ResourceARN string
	SecretARN   string
	Database    string
	Region      string

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Validate checks the required options.
func (o ConnectionOptions) Validate() error {
	var missing []string
	if o.ResourceARN == "" {
		missing = append(missing, "resource ARN")
	}
	if o.SecretARN == "" {
		missing = append(missing, "secret ARN")
	}
	if o.Database == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidOptions, missing)
	}
	return nil
}

// Client is the part of the rdsdata API the executor uses.
type Client interface {
	ExecuteStatement(ctx context.Context, params *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

// NewClient builds an rdsdata client from the options.
func NewClient(ctx context.Context, opts ConnectionOptions) (*rdsdata.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return rdsdata.NewFromConfig(cfg), nil
}

// Executor runs statements with rdsdata ExecuteStatement.
type Executor struct {
	client Client
	opts   ConnectionOptions
}

// New creates an executor over an existing client.
func New(client Client, opts ConnectionOptions) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Executor{client: client, opts: opts}, nil
}

// Connect builds a client from the options and returns an executor.
func Connect(ctx context.Context, opts ConnectionOptions) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Executor{client: client, opts: opts}, nil
}

// Dialect returns the dialect the Data API expects.
func (e *Executor) Dialect() *sqlgen.Dialect {
	return sqlgen.DataAPI
}

// Options returns the connection options.
func (e *Executor) Options() ConnectionOptions {
	return e.opts
}

// Execute runs one statement. Remote failures are returned as
// *executor.ExecutionError carrying the service error code.
func (e *Executor) Execute(ctx context.Context, sql string, params []sqlgen.Param) (*executor.RowSet, error) {
	input := &rdsdata.ExecuteStatementInput{
		ResourceArn:           aws.String(e.opts.ResourceARN),
		SecretArn:             aws.String(e.opts.SecretARN),
		Database:              aws.String(e.opts.Database),
		Sql:                   aws.String(sql),
		Parameters:            Parameters(params),
		IncludeResultMetadata: true,
	}

	debug.Debug("Executing statement", "dialect", "dataapi", "sql", sql, "params", len(params))
	out, err := e.client.ExecuteStatement(ctx, input)
	if err != nil {
		return nil, executor.NewExecutionError(sql, errorCode(err), err)
	}
	return rowSet(out)
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Parameters converts bound parameters into rdsdata SqlParameters.
func Parameters(params []sqlgen.Param) []types.SqlParameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]types.SqlParameter, len(params))
	for i, p := range params {
		out[i] = types.SqlParameter{
			Name:  aws.String(p.Name),
			Value: field(p),
		}
		if p.TypeHint != sqlgen.HintNone {
			out[i].TypeHint = types.TypeHint(p.TypeHint)
		}
	}
	return out
}

func field(p sqlgen.Param) types.Field {
	v := p.Value
	switch v.Kind() {
	case sqlgen.String, sqlgen.Date, sqlgen.DateTime:
		return &types.FieldMemberStringValue{Value: v.Text()}
	case sqlgen.Number:
		if p.TypeHint == sqlgen.HintDecimal {
			return &types.FieldMemberStringValue{Value: v.Text()}
		}
		if v.IsFloat() {
			return &types.FieldMemberDoubleValue{Value: v.Float()}
		}
		return &types.FieldMemberLongValue{Value: v.Int()}
	case sqlgen.Boolean:
		return &types.FieldMemberBooleanValue{Value: v.Bool()}
	default:
		return &types.FieldMemberIsNull{Value: true}
	}
}

func rowSet(out *rdsdata.ExecuteStatementOutput) (*executor.RowSet, error) {
	set := &executor.RowSet{RowsAffected: out.NumberOfRecordsUpdated}
	if len(out.ColumnMetadata) == 0 {
		return set, nil
	}

	set.Columns = make([]string, len(out.ColumnMetadata))
	for i, col := range out.ColumnMetadata {
		name := aws.ToString(col.Label)
		if name == "" {
			name = aws.ToString(col.Name)
		}
		set.Columns[i] = name
	}

	set.Rows = make([][]any, 0, len(out.Records))
	for _, record := range out.Records {
		row := make([]any, len(record))
		for i, f := range record {
			value, err := fieldValue(f)
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", i, err)
			}
			row[i] = value
		}
		set.Rows = append(set.Rows, row)
	}
	if set.RowsAffected == 0 {
		set.RowsAffected = int64(len(set.Rows))
	}
	return set, nil
}

func fieldValue(f types.Field) (any, error) {
	switch v := f.(type) {
	case *types.FieldMemberIsNull:
		return nil, nil
	case *types.FieldMemberStringValue:
		return v.Value, nil
	case *types.FieldMemberLongValue:
		return v.Value, nil
	case *types.FieldMemberDoubleValue:
		return v.Value, nil
	case *types.FieldMemberBooleanValue:
		return v.Value, nil
	case *types.FieldMemberBlobValue:
		return base64.StdEncoding.EncodeToString(v.Value), nil
	case *types.FieldMemberArrayValue:
		return arrayValue(v.Value)
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", f)
	}
}

func arrayValue(a types.ArrayValue) (any, error) {
	switch v := a.(type) {
	case *types.ArrayValueMemberStringValues:
		return v.Value, nil
	case *types.ArrayValueMemberLongValues:
		return v.Value, nil
	case *types.ArrayValueMemberDoubleValues:
		return v.Value, nil
	case *types.ArrayValueMemberBooleanValues:
		return v.Value, nil
	case *types.ArrayValueMemberArrayValues:
		out := make([]any, len(v.Value))
		for i, inner := range v.Value {
			value, err := arrayValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported array type %T", a)
	}
}
