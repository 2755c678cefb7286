package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/finsite/backend/internal/application/intake"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/domain/wizard"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockApplicationSaver is a mock implementation of intake.ApplicationSaver
type MockApplicationSaver struct {
	mock.Mock
}

func (m *MockApplicationSaver) SaveApplication(ctx context.Context, app lead.LoanApplication) (lead.LoanApplication, error) {
	args := m.Called(ctx, app)
	return args.Get(0).(lead.LoanApplication), args.Error(1)
}

func wizardRouter(saver intake.ApplicationSaver) *gin.Engine {
	router := gin.New()
	svc := intake.NewWizardService(saver, intake.WizardConfig{}, nil, nil)
	NewWizardHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

// openWizard opens a session and walks it to the contact step
func openWizard(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/wizard", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var opened WizardResponse
	decode(t, w, &opened)
	id := opened.ID.String()
	assert.Equal(t, wizard.StepChoosingTrack, opened.State.Step)

	base := "/api/v1/wizard/" + id
	var state wizard.State

	w = doJSON(t, router, http.MethodPost, base+"/track", SelectTrackRequest{Track: string(lead.TrackFinancial)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &state)
	assert.Equal(t, wizard.StepChoosingSubtype, state.Step)
	assert.Equal(t, lead.TrackFinancial.Subtypes(), state.Subtypes)

	w = doJSON(t, router, http.MethodPost, base+"/subtype", SelectSubtypeRequest{Subtype: "Working Capital"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &state)
	assert.Equal(t, wizard.StepBusinessProfile, state.Step)

	w = doJSON(t, router, http.MethodPut, base+"/profile", wizard.Profile{BusinessName: "Obi Foods", Industry: "Agriculture"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &state)
	assert.Equal(t, wizard.StepContactInfo, state.Step)
	return id
}

func TestWizardHandler_SubmitFlow(t *testing.T) {
	saver := new(MockApplicationSaver)
	saver.On("SaveApplication", mock.Anything, mock.MatchedBy(func(app lead.LoanApplication) bool {
		return app.Type == lead.TrackFinancial &&
			app.LoanType == "Working Capital" &&
			app.BusinessName == "Obi Foods" &&
			app.Status == lead.ApplicationPending
	})).Return(lead.LoanApplication{ID: "app-42"}, nil)
	router := wizardRouter(saver)

	id := openWizard(t, router)
	base := "/api/v1/wizard/" + id

	w := doJSON(t, router, http.MethodPut, base+"/contact", wizard.Contact{
		FullName: "Ada Obi",
		Role:     "Director",
		Email:    "ada@example.com",
		Phone:    "+234 800 000 0000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var state wizard.State
	decode(t, w, &state)
	assert.Equal(t, wizard.StepSubmitted, state.Step)
	assert.Equal(t, "app-42", state.ApplicationID)
	saver.AssertExpectations(t)
}

func TestWizardHandler_SubmitFailures(t *testing.T) {
	t.Run("missing contact fields", func(t *testing.T) {
		saver := new(MockApplicationSaver)
		router := wizardRouter(saver)
		id := openWizard(t, router)

		w := doJSON(t, router, http.MethodPost, "/api/v1/wizard/"+id+"/submit", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var state wizard.State
		resp := decode(t, w, &state)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, wizard.StepContactInfo, state.Step)
		saver.AssertNotCalled(t, "SaveApplication", mock.Anything, mock.Anything)
	})

	t.Run("upstream failure keeps the entered data", func(t *testing.T) {
		saver := new(MockApplicationSaver)
		saver.On("SaveApplication", mock.Anything, mock.Anything).
			Return(lead.LoanApplication{}, shared.NewStatusError("finance.create", http.StatusInternalServerError, ""))
		router := wizardRouter(saver)
		id := openWizard(t, router)
		base := "/api/v1/wizard/" + id

		contact := wizard.Contact{FullName: "Ada Obi", Role: "Director", Email: "ada@example.com", Phone: "0800"}
		require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, base+"/contact", contact).Code)

		w := doJSON(t, router, http.MethodPost, base+"/submit", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var state wizard.State
		decode(t, w, &state)
		assert.Equal(t, wizard.StepContactInfo, state.Step)
		assert.Equal(t, contact, state.Contact)
		assert.NotEmpty(t, state.Error)
	})
}

func TestWizardHandler_Errors(t *testing.T) {
	router := wizardRouter(new(MockApplicationSaver))

	w := doJSON(t, router, http.MethodPost, "/api/v1/wizard", nil)
	var opened WizardResponse
	decode(t, w, &opened)
	base := "/api/v1/wizard/" + opened.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/wizard/not-a-uuid", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown id", http.MethodGet, "/api/v1/wizard/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown track", http.MethodPost, base + "/track", SelectTrackRequest{Track: "crypto"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing track", http.MethodPost, base + "/track", map[string]string{}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"next from step one", http.MethodPost, base + "/next", nil, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"back from step one", http.MethodPost, base + "/back", nil, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"submit from step one", http.MethodPost, base + "/submit", nil, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			resp := decode(t, w, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestWizardHandler_BackAndClose(t *testing.T) {
	router := wizardRouter(new(MockApplicationSaver))
	id := openWizard(t, router)
	base := "/api/v1/wizard/" + id

	w := doJSON(t, router, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state wizard.State
	decode(t, w, &state)
	assert.Equal(t, wizard.StepBusinessProfile, state.Step)
	assert.Equal(t, "Obi Foods", state.Profile.BusinessName, "back preserves entered values")

	w = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
