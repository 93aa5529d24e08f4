package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/internal/config"
	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/internal/service"
	"github.com/padel-arena/padel-arena-backend/internal/testutil"
	"github.com/padel-arena/padel-arena-backend/internal/websocket"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	jwtutil "github.com/padel-arena/padel-arena-backend/pkg/jwt"
	"github.com/padel-arena/padel-arena-backend/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret"
	ownerID    = "user-owner"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	f      *testutil.Fixture
	tokens *jwtutil.Manager
	inbox  *service.InboxService
}

type fixedQueueStats struct{}

func (fixedQueueStats) Stats(context.Context) (*distributed.QueueStats, error) {
	return &distributed.QueueStats{Pending: 3, Processing: 1, Dead: 2}, nil
}

func newTestServer(t *testing.T, writesPerMinute int) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	f := testutil.SeedEvent(t, db)
	f.AddMember(t, ownerID, models.RoleOwner, models.AccessNone)

	log := zap.NewNop()
	authz := service.NewAuthorizer(repository.NewDirectoryRepository(db))
	tokens := jwtutil.NewManager(testSecret)
	inbox := service.NewInboxService(db, authz)

	router := SetupRouter(Deps{
		Config:     &config.Config{Env: "test"},
		DB:         db,
		Queue:      fixedQueueStats{},
		JWT:        tokens,
		Hub:        websocket.NewHub(log),
		Limiter:    ratelimit.NewMemoryLimiter(writesPerMinute, time.Minute),
		Generation: service.NewGenerationService(db, authz, nil, 30*time.Second, nil, log),
		Results:    service.NewResultService(db, authz, nil, time.Minute, 20, log),
		Standings:  service.NewStandingsService(db),
		Integrity:  service.NewIntegrityService(db, authz, log),
		Inbox:      inbox,
		Logger:     log,
	})

	return &testServer{router: router, f: f, tokens: tokens, inbox: inbox}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := s.tokens.Generate(userID, userID+"@clube.pt", time.Hour)
	require.NoError(t, err)
	return token
}

// do 요청을 보내고 응답 본문을 map으로 디코드
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (s *testServer) eventPath(suffix string) string {
	return "/api/v1/padel/events/" + s.f.Event.ID + suffix
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, 10)

	w, body := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])

	queue := body["notificationQueue"].(map[string]interface{})
	assert.EqualValues(t, 3, queue["pending"])
	assert.EqualValues(t, 1, queue["processing"])
	assert.EqualValues(t, 2, queue["dead"])
}

func TestPairingNotifications(t *testing.T) {
	s := newTestServer(t, 10)
	pairings := s.f.AddConfirmedPairings(t, 2)
	require.NoError(t, s.inbox.Deliver(context.Background(), &distributed.Notification{
		ID:         "queue-item",
		Kind:       "matches_generated",
		EventID:    s.f.Event.ID,
		MatchIDs:   []string{"m1", "m2"},
		PairingIDs: []string{pairings[0].ID},
	}))
	path := s.eventPath("/pairings/" + pairings[0].ID + "/notifications")

	w, body := s.do(t, http.MethodGet, path, s.token(t, ownerID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, body["total"])
	entry := body["notifications"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "matches_generated", entry["kind"])
	assert.Equal(t, []interface{}{"m1", "m2"}, entry["matchIds"])

	w, body = s.do(t, http.MethodGet, s.eventPath("/pairings/"+pairings[1].ID+"/notifications"), s.token(t, ownerID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["total"])

	w, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(t, http.MethodGet, path, s.token(t, "user-stranger"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGenerateAndReadBack(t *testing.T) {
	s := newTestServer(t, 10)
	s.f.SetConfig(t, "TODOS_CONTRA_TODOS", nil)
	s.f.AddConfirmedPairings(t, 4)
	token := s.token(t, ownerID)

	w, body := s.do(t, http.MethodPost, s.eventPath("/matches/generate"), token, gin.H{
		"categoryId": s.f.CategoryID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "TODOS_CONTRA_TODOS", body["format"])
	assert.Len(t, body["matches"], 6)
	assert.NotEmpty(t, body["generationVersion"])

	w, body = s.do(t, http.MethodGet, s.eventPath("/matches?roundType=GROUPS&categoryId="+s.f.CategoryID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, body["total"])

	w, body = s.do(t, http.MethodGet, s.eventPath("/standings?categoryId="+s.f.CategoryID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"A"}, body["groupLabels"])
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t, 10)
	owner := s.token(t, ownerID)
	stranger := s.token(t, "user-stranger")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"토큰 없이 생성", http.MethodPost, s.eventPath("/matches/generate"), "", gin.H{}, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"잘못된 토큰", http.MethodPost, s.eventPath("/matches/generate"), "garbage", gin.H{}, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"본문 형식 오류", http.MethodPost, s.eventPath("/matches/generate"), owner, "not-an-object", http.StatusBadRequest, "INVALID_INPUT"},
		{"알 수 없는 포맷", http.MethodPost, s.eventPath("/matches/generate"), owner, gin.H{"format": "CURLING"}, http.StatusBadRequest, "INVALID_FORMAT"},
		{"권한 없는 사용자", http.MethodPost, s.eventPath("/matches/generate"), stranger, gin.H{}, http.StatusForbidden, "FORBIDDEN"},
		{"없는 이벤트 순위", http.MethodGet, "/api/v1/padel/events/missing/standings", "", nil, http.StatusNotFound, "EVENT_NOT_FOUND"},
		{"잘못된 라운드 필터", http.MethodGet, s.eventPath("/matches?roundType=FINALS"), "", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"없는 경기 결과", http.MethodPost, "/api/v1/padel/matches/missing/result", owner, gin.H{"score": gin.H{}}, http.StatusNotFound, "MATCH_NOT_FOUND"},
		{"없는 경기 취소", http.MethodPost, "/api/v1/padel/matches/missing/undo", owner, nil, http.StatusNotFound, "MATCH_NOT_FOUND"},
		{"정합성 점검 인증 필요", http.MethodGet, s.eventPath("/integrity"), "", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"정합성 점검 권한 없음", http.MethodGet, s.eventPath("/integrity"), stranger, nil, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestSubmitAndUndoOverHTTP(t *testing.T) {
	s := newTestServer(t, 10)
	s.f.SetConfig(t, "QUADRO_ELIMINATORIO", nil)
	s.f.AddConfirmedPairings(t, 4)
	token := s.token(t, ownerID)

	w, body := s.do(t, http.MethodPost, s.eventPath("/matches/generate"), token, gin.H{"categoryId": s.f.CategoryID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var semifinal string
	for _, raw := range body["matches"].([]interface{}) {
		m := raw.(map[string]interface{})
		if m["pairingAId"] != nil && m["pairingBId"] != nil {
			semifinal = m["id"].(string)
			break
		}
	}
	require.NotEmpty(t, semifinal)

	score := gin.H{"sets": []gin.H{{"teamA": 6, "teamB": 2}, {"teamA": 6, "teamB": 3}}}
	w, body = s.do(t, http.MethodPost, "/api/v1/padel/matches/"+semifinal+"/result", token, gin.H{"score": score})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "COMPLETED", body["match"].(map[string]interface{})["status"])

	w, body = s.do(t, http.MethodPost, "/api/v1/padel/matches/"+semifinal+"/undo", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["slotReverted"])
	assert.NotEmpty(t, body["sourceLogId"])

	w, body = s.do(t, http.MethodPost, "/api/v1/padel/matches/"+semifinal+"/undo", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNDO_NOT_FOUND", body["error"])
}

func TestWritesAreRateLimited(t *testing.T) {
	s := newTestServer(t, 1)
	token := s.token(t, ownerID)

	w, _ := s.do(t, http.MethodPost, "/api/v1/padel/matches/missing/result", token, gin.H{"score": gin.H{}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/v1/padel/matches/missing/result", token, gin.H{"score": gin.H{}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", body["error"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 다른 사용자는 별도 버킷
	w, _ = s.do(t, http.MethodPost, "/api/v1/padel/matches/missing/result", s.token(t, "user-other"), gin.H{"score": gin.H{}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 공개 조회는 제한 대상 아님
	for i := 0; i < 3; i++ {
		w, _ = s.do(t, http.MethodGet, s.eventPath("/standings"), "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
