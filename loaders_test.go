package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dpcompass/compass_backend/middlewares"
	"github.com/dpcompass/compass_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader[T any](rows map[int]T, calls *int32) *dataloader.Loader[int, *T] {
	return dataloader.NewBatchedLoader(func(_ context.Context, ids []int) []*dataloader.Result[*T] {
		atomic.AddInt32(calls, 1)
		results := make([]*dataloader.Result[*T], len(ids))
		for i, id := range ids {
			row := rows[id]
			results[i] = &dataloader.Result[*T]{Data: &row}
		}
		return results
	}, dataloader.WithWait[int, *T](50*time.Millisecond))
}

type loaderCalls struct {
	users, applications, audits int32
}

func testLoaderContext(calls *loaderCalls) context.Context {
	users := map[int]models.User{
		7: {ID: 7, Username: "asha", Name: "Asha Rao"},
		9: {ID: 9, Username: "ravi"},
	}
	applications := map[int]models.Application{
		10: {ID: 10, Name: "Payments"},
		11: {ID: 11, Name: "Onboarding"},
	}
	audits := map[int]models.Audit{
		1: {ID: 1, ApplicationId: 10, Title: "Quarterly review"},
		2: {ID: 2, ApplicationId: 11, Title: "KYC review"},
	}
	return middlewares.WithLoaders(context.Background(), &middlewares.Loaders{
		UserLoader:        countingLoader(users, &calls.users),
		ApplicationLoader: countingLoader(applications, &calls.applications),
		AuditLoader:       countingLoader(audits, &calls.audits),
	})
}

func intPtr(v int) *int { return &v }

func TestWithGeneratorNamesBatchesUsers(t *testing.T) {
	var calls loaderCalls
	ctx := testLoaderContext(&calls)

	items, err := withGeneratorNames(ctx, []*models.ComplianceReport{
		{ID: 1, GeneratedById: intPtr(7)},
		{ID: 2, GeneratedById: intPtr(9)},
		{ID: 3, GeneratedById: intPtr(7)},
		{ID: 4},
	})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Asha Rao", items[0].GeneratedByName)
	assert.Equal(t, "ravi", items[1].GeneratedByName)
	assert.Equal(t, "Asha Rao", items[2].GeneratedByName)
	assert.Empty(t, items[3].GeneratedByName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.users))
}

func TestNewRemediationViewsBatchesLookups(t *testing.T) {
	var calls loaderCalls
	ctx := testLoaderContext(&calls)

	views, err := newRemediationViews(ctx, []*models.Remediation{
		{ID: 1, AuditResponse: &models.AuditResponse{ID: 100, AuditId: 1}, AssignedToId: intPtr(7)},
		{ID: 2, AuditResponse: &models.AuditResponse{ID: 101, AuditId: 1}, AssignedToId: intPtr(9)},
		{ID: 3, AuditResponse: &models.AuditResponse{ID: 102, AuditId: 2}},
		{ID: 4},
	})
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, 1, views[0].AuditId)
	assert.Equal(t, "Quarterly review", views[0].AuditTitle)
	assert.Equal(t, "Payments", views[0].ApplicationName)
	assert.Equal(t, "Asha Rao", views[0].AssignedToName)
	assert.Equal(t, "ravi", views[1].AssignedToName)
	assert.Equal(t, "KYC review", views[2].AuditTitle)
	assert.Equal(t, "Onboarding", views[2].ApplicationName)
	assert.Empty(t, views[2].AssignedToName)
	assert.Zero(t, views[3].AuditId)
	assert.Empty(t, views[3].ApplicationName)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.audits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.applications))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls.users))
}

func TestNewRemediationViewsSkipsLoadersWhenNothingLinked(t *testing.T) {
	var calls loaderCalls
	ctx := testLoaderContext(&calls)

	views, err := newRemediationViews(ctx, []*models.Remediation{{ID: 5}})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Zero(t, atomic.LoadInt32(&calls.audits)+atomic.LoadInt32(&calls.applications)+atomic.LoadInt32(&calls.users))
}
