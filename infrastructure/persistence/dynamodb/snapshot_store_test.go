package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowbuilder/domain/snapshot"
	pkgerrors "flowbuilder/pkg/errors"
	"flowbuilder/pkg/serialization"
)

func sample() snapshot.Snapshot {
	return snapshot.Snapshot{
		Nodes: []snapshot.NodeRecord{
			{ID: "textMessage-1", Type: "textMessage", Position: snapshot.PositionRecord{X: 250, Y: 100}, Data: snapshot.DataRecord{Text: "Start Message"}},
			{ID: "textMessage-2", Type: "textMessage", Data: snapshot.DataRecord{Text: "Bye"}},
		},
		Edges: []snapshot.EdgeRecord{{ID: "e1", Source: "textMessage-1", Target: "textMessage-2"}},
	}
}

func TestSnapshotStore_PutThenGet(t *testing.T) {
	api := new(mockAPI)
	store := NewSnapshotStore(api, "flows", serialization.NewSerializer(serialization.MsgPackCodec{}, serialization.CompressionZstd), nil)
	ctx := context.Background()

	var stored map[string]types.AttributeValue
	api.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.TableName) == "flows"
	})).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(nil).Once()

	require.NoError(t, store.Put(ctx, "chatbot-flow", sample()))
	require.NotNil(t, stored)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "FLOW#chatbot-flow"}, stored["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "SNAPSHOT"}, stored["SK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "msgpack"}, stored["Codec"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "2"}, stored["NodeCount"])

	api.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		pk := in.Key["PK"].(*types.AttributeValueMemberS).Value
		return pk == "FLOW#chatbot-flow" && in.ProjectionExpression != nil
	})).Return(&dynamodb.GetItemOutput{Item: stored}, nil).Once()

	got, err := store.Get(ctx, "chatbot-flow")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
	api.AssertExpectations(t)
}

func TestSnapshotStore_ReadsItemsWrittenWithOtherCodec(t *testing.T) {
	api := new(mockAPI)
	ctx := context.Background()

	var stored map[string]types.AttributeValue
	api.On("PutItem", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(nil).Once()
	require.NoError(t, NewSnapshotStore(api, "flows", nil, nil).Put(ctx, "k", sample()))

	api.On("GetItem", ctx, mock.Anything).Return(&dynamodb.GetItemOutput{Item: stored}, nil).Once()
	reader := NewSnapshotStore(api, "flows", serialization.NewSerializer(serialization.MsgPackCodec{}, serialization.CompressionGzip), nil)

	got, err := reader.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

	_, err := NewSnapshotStore(api, "flows", nil, nil).Get(context.Background(), "chatbot-flow")

	assert.True(t, errors.Is(err, pkgerrors.ErrSnapshotNotFound))
}

func TestSnapshotStore_ClientErrors(t *testing.T) {
	api := new(mockAPI)
	api.On("PutItem", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	api.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	store := NewSnapshotStore(api, "flows", nil, nil)

	assert.ErrorContains(t, store.Put(context.Background(), "k", sample()), "throttled")

	_, err := store.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "throttled")
	assert.False(t, pkgerrors.IsNotFound(err))
}
