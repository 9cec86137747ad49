package dynamodb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/contactbook/model"
	"github.com/hupe1980/contactbook/store"
)

const (
	attrEmail        = "email"
	attrID           = "id"
	attrName         = "name"
	attrDisplayEmail = "display_email"
	attrSeq          = "seq"

	counterKey = "#seq"

	condNotExists = "attribute_not_exists(email)"
	condExists    = "attribute_exists(email)"
)

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements store.Store on a DynamoDB table.
type Store struct {
	client   Client
	table    string
	pageSize int32
}

// Option configures a Store.
type Option func(*Store)

// WithScanPageSize limits the items returned per Scan page in List.
func WithScanPageSize(n int32) Option {
	return func(s *Store) { s.pageSize = n }
}

// New creates a Store on the given table.
func New(client Client, table string, optFns ...Option) *Store {
	s := &Store{client: client, table: table}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func keyOf(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrEmail: &types.AttributeValueMemberS{Value: email},
	}
}

func toItem(c model.Contact) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrEmail:        &types.AttributeValueMemberS{Value: c.Key()},
		attrID:           &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(c.ID), 10)},
		attrName:         &types.AttributeValueMemberS{Value: c.Name},
		attrDisplayEmail: &types.AttributeValueMemberS{Value: c.Email},
	}
}

func fromItem(item map[string]types.AttributeValue) (model.Contact, error) {
	var c model.Contact

	idAttr, ok := item[attrID].(*types.AttributeValueMemberN)
	if !ok {
		return c, fmt.Errorf("dynamodb: item without %s", attrID)
	}
	id, err := strconv.ParseUint(idAttr.Value, 10, 64)
	if err != nil {
		return c, fmt.Errorf("dynamodb: invalid %s %q: %w", attrID, idAttr.Value, err)
	}
	c.ID = model.ID(id)

	if v, ok := item[attrName].(*types.AttributeValueMemberS); ok {
		c.Name = v.Value
	}
	if v, ok := item[attrDisplayEmail].(*types.AttributeValueMemberS); ok {
		c.Email = v.Value
	} else if v, ok := item[attrEmail].(*types.AttributeValueMemberS); ok {
		c.Email = v.Value
	}
	return c, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// nextID increments the counter item and returns the new value.
func (s *Store) nextID(ctx context.Context) (model.ID, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              keyOf(counterKey),
		UpdateExpression: aws.String("ADD " + attrSeq + " :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("dynamodb: allocate id: %w", err)
	}

	seq, ok := out.Attributes[attrSeq].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("dynamodb: allocate id: counter missing from response")
	}
	id, err := strconv.ParseUint(seq.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("dynamodb: allocate id: %w", err)
	}
	return model.ID(id), nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, c model.Contact) (model.Contact, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return model.Contact{}, err
	}
	c.ID = id

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                toItem(c),
		ConditionExpression: aws.String(condNotExists),
	})
	if err != nil {
		if isConditionFailed(err) {
			return model.Contact{}, store.ErrDuplicate
		}
		return model.Contact{}, err
	}
	return c, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, email string) (model.Contact, error) {
	key := model.NormalizeKey(email)
	if key == counterKey {
		return model.Contact{}, store.ErrNotFound
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Contact{}, err
	}
	if len(out.Item) == 0 {
		return model.Contact{}, store.ErrNotFound
	}
	return fromItem(out.Item)
}

// Update implements store.Store. Moving a record to a new email is a single
// transaction that writes the new key and deletes the old one.
func (s *Store) Update(ctx context.Context, email string, c model.Contact) (model.Contact, error) {
	old, err := s.Get(ctx, email)
	if err != nil {
		return model.Contact{}, err
	}
	c.ID = old.ID

	oldKey := old.Key()
	if c.Key() == oldKey {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.table),
			Item:                toItem(c),
			ConditionExpression: aws.String(condExists),
		})
		if err != nil {
			if isConditionFailed(err) {
				return model.Contact{}, store.ErrNotFound
			}
			return model.Contact{}, err
		}
		return c, nil
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                toItem(c),
				ConditionExpression: aws.String(condNotExists),
			}},
			{Delete: &types.Delete{
				TableName:           aws.String(s.table),
				Key:                 keyOf(oldKey),
				ConditionExpression: aws.String(condExists),
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return model.Contact{}, cancellationError(tce)
		}
		return model.Contact{}, err
	}
	return c, nil
}

// cancellationError maps the per-item reasons of a canceled re-key
// transaction: the put fails on a taken email, the delete on a vanished record.
func cancellationError(tce *types.TransactionCanceledException) error {
	reasons := tce.CancellationReasons
	failed := func(i int) bool {
		return i < len(reasons) && aws.ToString(reasons[i].Code) == "ConditionalCheckFailed"
	}
	switch {
	case failed(0):
		return store.ErrDuplicate
	case failed(1):
		return store.ErrNotFound
	default:
		return tce
	}
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, email string) (model.Contact, error) {
	key := model.NormalizeKey(email)
	if key == counterKey {
		return model.Contact{}, store.ErrNotFound
	}

	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 keyOf(key),
		ConditionExpression: aws.String(condExists),
		ReturnValues:        types.ReturnValueAllOld,
	})
	if err != nil {
		if isConditionFailed(err) {
			return model.Contact{}, store.ErrNotFound
		}
		return model.Contact{}, err
	}
	return fromItem(out.Attributes)
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]model.Contact, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
	}
	if s.pageSize > 0 {
		input.Limit = aws.Int32(s.pageSize)
	}

	var out []model.Contact
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if k, ok := item[attrEmail].(*types.AttributeValueMemberS); ok && k.Value == counterKey {
				continue
			}
			c, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}

	slices.SortFunc(out, func(a, b model.Contact) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Close implements store.Store. The client owns no resources.
func (s *Store) Close() error { return nil }
