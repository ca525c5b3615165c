package grpc

import (
	context "context"
	"errors"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	structpb "google.golang.org/protobuf/types/known/structpb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

type PointsService struct {
	ledger *services.LedgerService
	logger *zap.Logger
}

func NewPointsService(ledger *services.LedgerService, logger *zap.Logger) *PointsService {
	return &PointsService{ledger, logger}
}

func (p *PointsService) Log(err error) {
	p.logger.Error("gRPC", zap.Error(err))
}

func (p *PointsService) toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	p.Log(err)
	return status.Error(codes.Internal, "server error")
}

// Баланс
func (p *PointsService) GetBalance(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	user, err := uuid.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "user id is not correct")
	}
	points, err := p.ledger.GetBalance(ctx, user)
	if err != nil {
		return nil, p.toStatus(err)
	}
	return wrapperspb.Int64(points), nil
}

// История за период: {user, from, to} в формате 2006-01-02
func (p *PointsService) GetHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	user, err := uuid.Parse(fields["user"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "user id is not correct")
	}
	from, err := time.Parse("2006-01-02 15:04:05", fields["from"].GetStringValue()+" 00:00:00")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "from is not correct")
	}
	to, err := time.Parse("2006-01-02 15:04:05", fields["to"].GetStringValue()+" 23:59:59")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "to is not correct")
	}

	list, err := p.ledger.GetHistory(ctx, user, from, to)
	if err != nil {
		return nil, p.toStatus(err)
	}
	entries := make([]any, len(list))
	for i, a := range list {
		entries[i] = map[string]any{
			"id":            a.ID.String(),
			"activity_type": a.ActivityType,
			"points_change": a.PointsChange,
			"description":   a.Description,
			"created_at":    a.CreatedAt.Format(time.RFC3339),
		}
	}
	resp, err := structpb.NewStruct(map[string]any{"entries": entries})
	if err != nil {
		p.Log(err)
		return nil, status.Error(codes.Internal, "server error")
	}
	return resp, nil
}
