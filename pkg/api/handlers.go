package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/Belafone/VivSync/pkg/crypto"
	"github.com/Belafone/VivSync/pkg/database"
	"github.com/Belafone/VivSync/pkg/ical"
	"github.com/Belafone/VivSync/pkg/models"
	"github.com/Belafone/VivSync/pkg/temporal/workflows"
)

const (
	msgSyncAccepted  = "Dienstplan erfolgreich synchronisiert"
	msgNoDienste     = "Keine Dienste übermittelt"
	msgTokenNotFound = "Token nicht gefunden oder Zugriff verweigert"
	msgLinkExpired   = "Dieser Link ist abgelaufen. Bitte synchronisieren Sie Ihren Dienstplan erneut."
)

// Handlers contains the sync service HTTP handlers.
type Handlers struct {
	store             database.Store
	keeper            *crypto.Keeper
	temporalClient    client.Client
	logger            *zap.Logger
	upgrader          websocket.Upgrader
	baseURL           string
	defaultExpiryDays int
	version           models.VersionInfo
	now               func() time.Time
}

// NewHandlers creates the handler set. temporalClient may be nil; the run
// endpoints then answer 503.
func NewHandlers(
	store database.Store,
	keeper *crypto.Keeper,
	temporalClient client.Client,
	logger *zap.Logger,
	baseURL string,
	defaultExpiryDays int,
	version models.VersionInfo,
) *Handlers {
	return &Handlers{
		store:             store,
		keeper:            keeper,
		temporalClient:    temporalClient,
		logger:            logger,
		baseURL:           baseURL,
		defaultExpiryDays: defaultExpiryDays,
		version:           version,
		now:               time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router wires all routes onto a mux router.
func (h *Handlers) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/calendar/{token}", h.ServeCalendar).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/sync", h.ReceiveSync).Methods("POST")
	apiRouter.HandleFunc("/version", h.Version).Methods("GET")
	apiRouter.HandleFunc("/runs", h.StartRun).Methods("POST")
	apiRouter.HandleFunc("/runs/{id}/stream", h.StreamRun).Methods("GET")

	return router
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// Version serves the client update-check payload.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.version)
}

// ReceiveSync accepts a merged roster, encrypts it, and publishes a
// calendar feed URL for it.
func (h *Handlers) ReceiveSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Dienste) == 0 {
		respondError(w, http.StatusBadRequest, msgNoDienste)
		return
	}

	username := req.Dienste[0].Username
	if username == "" {
		username = r.Header.Get("X-Username")
	}

	var token string
	if username != "" {
		token = UserToken(username)
	} else {
		var err error
		token, err = RandomToken()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	expiryDays := req.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = h.defaultExpiryDays
	}

	envelope := models.StoredEnvelope{
		Dienste:    req.Dienste,
		ExpiryDays: expiryDays,
		CreatedAt:  h.now().Unix(),
	}
	plaintext, err := json.Marshal(envelope)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ciphertext, err := h.keeper.Encrypt(plaintext)
	if err != nil {
		h.logger.Error("failed to encrypt payload", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.store.SavePayload(ctx, token, ciphertext); err != nil {
		h.logger.Error("failed to store payload", zap.String("token", token), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("sync accepted",
		zap.String("token", token),
		zap.Int("dienste", len(req.Dienste)),
		zap.Int("expiry_days", expiryDays))

	respondJSON(w, models.SyncResponse{
		Status:    "success",
		Message:   msgSyncAccepted,
		IcalURL:   h.baseURL + "/calendar/" + token,
		ExpiresIn: fmt.Sprintf("%d Tage", expiryDays),
	})
}

// ServeCalendar renders the stored roster as an iCalendar feed. Feeds past
// their expiry window answer 410 so calendar clients stop refreshing them.
func (h *Handlers) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := mux.Vars(r)["token"]

	rec, err := h.store.GetPayload(ctx, token)
	if err == database.ErrNotFound {
		http.Error(w, msgTokenNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	plaintext, err := h.keeper.Decrypt(rec.Payload)
	if err != nil {
		h.logger.Error("failed to decrypt payload", zap.String("token", token), zap.Error(err))
		http.Error(w, msgTokenNotFound, http.StatusNotFound)
		return
	}

	var envelope models.StoredEnvelope
	if err := json.Unmarshal(plaintext, &envelope); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if h.now().Unix()-envelope.CreatedAt > int64(envelope.ExpiryDays)*86400 {
		http.Error(w, msgLinkExpired, http.StatusGone)
		return
	}

	body := ical.Encode(envelope.Dienste, h.now(), nil)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vivsync-%s.ics", token))
	w.Write([]byte(body))
}

// StartRun triggers a server-side extraction run via Temporal.
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.temporalClient == nil {
		http.Error(w, "Run scheduling not available", http.StatusServiceUnavailable)
		return
	}

	var input workflows.SyncInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.ExpiryDays <= 0 {
		input.ExpiryDays = h.defaultExpiryDays
	}

	runID := uuid.New().String()
	workflowOptions := client.StartWorkflowOptions{
		ID:        "vivsync-sync-" + runID,
		TaskQueue: workflows.TaskQueue,
	}

	we, err := h.temporalClient.ExecuteWorkflow(ctx, workflowOptions, "SyncWorkflow", input)
	if err != nil {
		h.logger.Error("failed to start workflow", zap.Error(err))
		http.Error(w, "Failed to start run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"run_id":               runID,
		"temporal_workflow_id": we.GetID(),
		"temporal_run_id":      we.GetRunID(),
		"status":               string(models.RunRunning),
	})
}

// StreamRun streams run progress over a websocket by polling the
// workflow's progress query.
func (h *Handlers) StreamRun(w http.ResponseWriter, r *http.Request) {
	workflowID := "vivsync-sync-" + mux.Vars(r)["id"]

	if h.temporalClient == nil {
		http.Error(w, "Run scheduling not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last models.RunProgress

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := h.temporalClient.QueryWorkflow(ctx, workflowID, "", workflows.QueryProgress)
			if err != nil {
				continue
			}
			var progress models.RunProgress
			if err := resp.Get(&progress); err != nil {
				continue
			}

			if progress != last {
				msg := models.WSMessage{Type: "run_update", Payload: progress}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
				last = progress
			}

			if progress.Status == models.RunSuccess || progress.Status == models.RunFailed {
				return
			}
		}
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.SyncResponse{Status: "error", Message: message})
}
