package usecase

import "context"

type RunUC interface {
	Execute(ctx context.Context, req *ExecuteRunReq) (*ExecuteRunRes, error)
	GetRunProgress(ctx context.Context, runID int64) (*RunProgress, error)
}
