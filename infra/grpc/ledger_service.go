package grpc

import (
	"context"
	"errors"
	"time"
	"tradepost/app"
	"tradepost/domain"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// LedgerServiceName is the fully qualified gRPC service name.
const LedgerServiceName = "tradepost.v1.LedgerService"

// LedgerServiceServer is the read side of the ledger over gRPC. Messages are
// google.protobuf.Struct so clients need no generated stubs.
type LedgerServiceServer interface {
	GetCashTotals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetExchangeRates(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetItemStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AuditStock(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetCashTotals", LedgerServiceServer.GetCashTotals),
		unaryMethod("GetExchangeRates", LedgerServiceServer.GetExchangeRates),
		unaryMethod("GetItemStock", LedgerServiceServer.GetItemStock),
		unaryMethod("AuditStock", LedgerServiceServer.AuditStock),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tradepost/v1/ledger.proto",
}

func unaryMethod[Req any](name string, call func(LedgerServiceServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + LedgerServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerStore is the part of the repository the ledger service reads.
type LedgerStore interface {
	GetItem(ctx context.Context, id string) (domain.Item, error)
	GetCashTotals(ctx context.Context, r domain.DateRange) (domain.CashTotals, error)
	StockLedger(ctx context.Context) ([]domain.StockLedgerRow, error)
}

type LedgerService struct {
	store LedgerStore
	rates app.RateProvider
}

var _ LedgerServiceServer = (*LedgerService)(nil)

func NewLedgerService(store LedgerStore, rates app.RateProvider) *LedgerService {
	return &LedgerService{
		store: store,
		rates: rates,
	}
}

func (s *LedgerService) GetCashTotals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := domain.ParseDateRange(stringField(req, "startDate"), stringField(req, "endDate"))
	if err != nil {
		return nil, mapError(err)
	}

	totals, err := s.store.GetCashTotals(ctx, r)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(map[string]any{
		"totalCashIn":  totals.TotalCashIn.StringFixed(2),
		"totalCashOut": totals.TotalCashOut.StringFixed(2),
	})
}

func (s *LedgerService) GetExchangeRates(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshot := s.rates.GetRates(ctx)

	rates := make(map[string]any, len(snapshot.Rates))
	for pair, rate := range snapshot.Rates {
		rates[string(pair)] = rate.String()
	}

	var fetchedAt any
	if !snapshot.FetchedAt.IsZero() {
		fetchedAt = snapshot.FetchedAt.UTC().Format(time.RFC3339)
	}

	return toStruct(map[string]any{
		"rates":     rates,
		"fetchedAt": fetchedAt,
		"fallback":  snapshot.Fallback,
	})
}

func (s *LedgerService) GetItemStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itemID := stringField(req, "itemId")
	if itemID == "" {
		return nil, status.Error(codes.InvalidArgument, "itemId is required")
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(map[string]any{
		"itemId": item.ID,
		"name":   item.Name,
		"stock":  item.Stock,
		"price":  item.Price.StringFixed(2),
	})
}

func (s *LedgerService) AuditStock(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	rows, err := s.store.StockLedger(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	drift := domain.AuditStock(rows)
	items := make([]any, 0, len(drift))
	for _, d := range drift {
		items = append(items, map[string]any{
			"itemId":        d.ItemID,
			"name":          d.Name,
			"stock":         d.Stock,
			"expectedStock": d.ExpectedStock,
		})
	}

	return toStruct(map[string]any{
		"checked": len(rows),
		"drift":   items,
	})
}

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func mapError(err error) error {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrExternalService):
		return status.Error(codes.Unavailable, err.Error())
	default:
		zap.L().Error("Ledger service failure", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
