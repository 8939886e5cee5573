package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	integrationOnce sync.Once
	integrationErr  error
)

func startContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start %s: %w", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("container host: %w", err)
	}
	return container, host, nil
}

// startBackends runs MySQL and Redis once for the whole package and points the
// global connections at them. Containers live until the process exits.
func startBackends() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	mysqlC, dbHost, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "testpass",
			"MYSQL_DATABASE":      "compass_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort("3306/tcp"),
		).WithStartupTimeoutDefault(2 * time.Minute),
	})
	if err != nil {
		return err
	}
	dbPort, err := mysqlC.MappedPort(ctx, "3306/tcp")
	if err != nil {
		return fmt.Errorf("mysql port: %w", err)
	}

	redisC, redisHost, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	})
	if err != nil {
		return err
	}
	redisPort, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return fmt.Errorf("redis port: %w", err)
	}

	os.Setenv("DB_USER", "root")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_HOST", dbHost)
	os.Setenv("DB_PORT", dbPort.Port())
	os.Setenv("DB_NAME", "compass_test")
	os.Setenv("REDIS_ADDRESS", redisHost+":"+redisPort.Port())
	if os.Getenv("API_SECRET") == "" {
		os.Setenv("API_SECRET", "integration-secret")
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := models.LoadChecklist(context.Background()); err != nil {
		return fmt.Errorf("load checklist: %w", err)
	}
	return nil
}

func setupIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	integrationOnce.Do(func() {
		integrationErr = startBackends()
	})
	require.NoError(t, integrationErr)
}

func newTestUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	user, err := models.CreateUser(context.Background(), &models.NewUser{
		Username: string(role) + "-" + uuid.NewString()[:8],
		Name:     "Test " + string(role),
		Password: "s3cret-password",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

type auditFixture struct {
	admin, auditor, owner *models.User
	application           *models.Application
	audit                 *models.Audit
}

func newAuditFixture(t *testing.T) auditFixture {
	t.Helper()
	ctx := context.Background()
	f := auditFixture{
		admin:   newTestUser(t, models.UserRoleAdmin),
		auditor: newTestUser(t, models.UserRoleAuditor),
		owner:   newTestUser(t, models.UserRoleDeveloper),
	}

	var err error
	f.application, err = models.CreateApplication(ctx, f.owner, &models.NewApplication{
		Name:        "Payments " + uuid.NewString()[:8],
		Description: "Card and UPI payments",
	})
	require.NoError(t, err)
	require.NotNil(t, f.application.OwnerId)
	assert.Equal(t, f.owner.ID, *f.application.OwnerId)

	f.audit, err = models.CreateAudit(ctx, f.auditor, &models.NewAudit{
		ApplicationId: f.application.ID,
		Title:         "Quarterly DPDP review",
		AuditorId:     &f.auditor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusPending, f.audit.Status)
	return f
}

func auditResponses(t *testing.T, auditId int) []models.AuditResponse {
	t.Helper()
	var responses []models.AuditResponse
	require.NoError(t, config.GetDB().Where("audit_id = ?", auditId).Order("id").Find(&responses).Error)
	return responses
}

func requireAccessDenied(t *testing.T, err error) {
	t.Helper()
	var denied *models.AccessDeniedError
	require.True(t, errors.As(err, &denied), "expected access denied, got %v", err)
}

func TestIntegrationLoadChecklistIsIdempotent(t *testing.T) {
	setupIntegration(t)
	ctx := context.Background()

	again, err := models.LoadChecklist(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.SectionsCreated)
	assert.Zero(t, again.CategoriesCreated)
	assert.Zero(t, again.ItemsCreated)
	assert.Zero(t, again.TemplatesCreated)

	categories, err := models.ListChecklist(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, categories)
}

func TestIntegrationCreateAuditSeedsPendingResponses(t *testing.T) {
	setupIntegration(t)
	f := newAuditFixture(t)

	var activeItems int64
	require.NoError(t, config.GetDB().Model(&models.ChecklistItem{}).Where("is_active = ?", true).Count(&activeItems).Error)

	responses := auditResponses(t, f.audit.ID)
	require.Len(t, responses, int(activeItems))
	for _, r := range responses {
		assert.Equal(t, models.ResponseStatusPending, r.Status)
		assert.NotEmpty(t, r.ItemCode)
	}

	_, err := models.AddAuditResponse(context.Background(), f.auditor, f.audit.ID, *responses[0].ChecklistItemId)
	assert.ErrorIs(t, err, models.ErrDuplicateResponse)

	_, err = models.RecordScore(context.Background(), f.auditor, f.audit.ID)
	var validation *models.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestIntegrationAuditLifecycleAndReport(t *testing.T) {
	setupIntegration(t)
	ctx := context.Background()
	f := newAuditFixture(t)

	_, err := models.GenerateReport(ctx, f.auditor, f.audit.ID, &models.NewReport{})
	assert.ErrorIs(t, err, models.ErrAuditNotCompleted)

	started, err := models.BeginAudit(ctx, f.auditor, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	reentered, err := models.BeginAudit(ctx, f.auditor, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusInProgress, reentered.Status)
	require.NotNil(t, reentered.StartedAt)
	assert.Equal(t, started.StartedAt.Unix(), reentered.StartedAt.Unix())

	responses := auditResponses(t, f.audit.ID)
	require.GreaterOrEqual(t, len(responses), 10)
	inputs := make([]models.ResponseInput, 0, 10)
	for i, r := range responses[:10] {
		status := models.ResponseStatusCompliant
		switch {
		case i >= 8:
			status = models.ResponseStatusPending
		case i >= 6:
			status = models.ResponseStatusNonCompliant
		}
		inputs = append(inputs, models.ResponseInput{ID: r.ID, Status: status, Findings: "checked"})
	}
	saved, err := models.RecordResponses(ctx, f.auditor, f.audit.ID, inputs)
	require.NoError(t, err)
	assert.Equal(t, 10, saved)

	score, err := models.RecordScore(ctx, f.auditor, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", score.OverallScore.StringFixed(2))
	assert.Equal(t, 6, score.CompliantItems)

	completed, err := models.CompleteAudit(ctx, f.auditor, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	again, err := models.CompleteAudit(ctx, f.auditor, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, completed.CompletedAt.Unix(), again.CompletedAt.Unix())

	_, err = models.HoldAudit(ctx, f.admin, f.audit.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	report, err := models.GenerateReport(ctx, f.auditor, f.audit.ID, &models.NewReport{})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusGenerated, report.Status)
	assert.True(t, strings.HasPrefix(report.Title, "Compliance Report - Payments"))
	assert.Equal(t, "Compliance assessment completed with score of 75.00%", report.Summary)
	require.NotNil(t, report.ComplianceScore)
	assert.Equal(t, "75.00", report.ComplianceScore.StringFixed(2))

	_, err = models.ApproveReport(ctx, f.auditor, report.ID)
	requireAccessDenied(t, err)

	approved, err := models.ApproveReport(ctx, f.admin, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = models.ApproveReport(ctx, f.admin, report.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	archived, err := models.ArchiveReport(ctx, f.admin, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusArchived, archived.Status)

	export, err := models.GetReportExport(ctx, f.owner, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", export.Score.ComplianceText())
}

func TestIntegrationHoldBlocksExecution(t *testing.T) {
	setupIntegration(t)
	ctx := context.Background()
	f := newAuditFixture(t)

	_, err := models.HoldAudit(ctx, f.auditor, f.audit.ID)
	requireAccessDenied(t, err)

	held, err := models.HoldAudit(ctx, f.admin, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusOnHold, held.Status)

	_, err = models.BeginAudit(ctx, f.auditor, f.audit.ID)
	assert.ErrorIs(t, err, models.ErrAuditOnHold)

	responses := auditResponses(t, f.audit.ID)
	_, err = models.RecordResponses(ctx, f.auditor, f.audit.ID, []models.ResponseInput{
		{ID: responses[0].ID, Status: models.ResponseStatusCompliant},
	})
	assert.ErrorIs(t, err, models.ErrAuditOnHold)

	resumed, err := models.ResumeAudit(ctx, f.admin, f.audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusInProgress, resumed.Status)
}

func TestIntegrationRoleScoping(t *testing.T) {
	setupIntegration(t)
	ctx := context.Background()
	f := newAuditFixture(t)
	outsider := newTestUser(t, models.UserRoleDeveloper)
	otherAuditor := newTestUser(t, models.UserRoleAuditor)

	ownerAudits, err := models.ListAudits(ctx, f.owner, "")
	require.NoError(t, err)
	assert.True(t, containsAudit(ownerAudits, f.audit.ID))

	outsiderAudits, err := models.ListAudits(ctx, outsider, "")
	require.NoError(t, err)
	assert.False(t, containsAudit(outsiderAudits, f.audit.ID))

	_, err = models.GetAudit(ctx, outsider, f.audit.ID)
	requireAccessDenied(t, err)

	_, err = models.BeginAudit(ctx, otherAuditor, f.audit.ID)
	requireAccessDenied(t, err)

	before := auditResponses(t, f.audit.ID)
	_, err = models.RecordResponses(ctx, otherAuditor, f.audit.ID, []models.ResponseInput{
		{ID: before[0].ID, Status: models.ResponseStatusCompliant, Findings: "not mine"},
	})
	requireAccessDenied(t, err)
	after := auditResponses(t, f.audit.ID)
	require.Len(t, after, len(before))
	assert.Equal(t, models.ResponseStatusPending, after[0].Status)
	assert.Nil(t, after[0].ReviewedById)
	assert.Empty(t, after[0].Findings)

	_, err = models.GetApplication(ctx, outsider, f.application.ID)
	var denied *models.AccessDeniedError
	require.True(t, errors.As(err, &denied), "expected access denied, got %v", err)
	assert.Equal(t, "/applications/", denied.Redirect)

	_, err = models.GetApplicationDetail(ctx, outsider, f.application.ID)
	requireAccessDenied(t, err)

	owned, err := models.GetApplication(ctx, f.owner, f.application.ID)
	require.NoError(t, err)
	assert.Equal(t, f.application.ID, owned.ID)

	apps, err := models.ListApplications(ctx, outsider)
	require.NoError(t, err)
	for _, app := range apps {
		assert.NotEqual(t, f.application.ID, app.ID)
	}

	_, err = models.ListUsers(ctx, f.auditor)
	requireAccessDenied(t, err)

	_, err = models.GetDashboard(ctx, f.owner)
	require.NoError(t, err)

	_, err = models.GetAudit(ctx, f.owner, 999999999)
	assert.Error(t, err)
}

func TestIntegrationLogoutRevokesAccessToken(t *testing.T) {
	setupIntegration(t)
	ctx := context.Background()
	user := newTestUser(t, models.UserRoleDeveloper)

	info, err := models.Login(ctx, user.Username, "s3cret-password")
	require.NoError(t, err)

	parsed, err := utils.JwtValidate(info.AccessToken)
	require.NoError(t, err)
	claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
	require.True(t, ok)
	assert.Equal(t, info.Token, claims.Id)

	live, err := config.IsRedisSetMember("Tokens:"+user.Username, claims.Id)
	require.NoError(t, err)
	assert.True(t, live)

	require.NoError(t, models.Logout(utils.SetTokenInContext(ctx, info.Token), user))

	live, err = config.IsRedisSetMember("Tokens:"+user.Username, claims.Id)
	require.NoError(t, err)
	assert.False(t, live)
}

func containsAudit(audits []*models.Audit, id int) bool {
	for _, a := range audits {
		if a.ID == id {
			return true
		}
	}
	return false
}
