package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "brigade/internal/core/context"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims OperatorClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func operatorClaims(subject, role string) OperatorClaims {
	return OperatorClaims{
		Name: "Test Operator",
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidate(t *testing.T) {
	v := NewJWTValidator(testSecret)

	op, err := v.Validate(signToken(t, testSecret, operatorClaims("op-1", "chef")))
	require.NoError(t, err)
	assert.Equal(t, "op-1", op.ID)
	assert.Equal(t, "Test Operator", op.Name)
	assert.Equal(t, "chef", op.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	v := NewJWTValidator(testSecret)
	_, err := v.Validate(signToken(t, "other-secret", operatorClaims("op-1", "chef")))
	assert.Error(t, err)
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	v := NewJWTValidator(testSecret)
	_, err := v.Validate(signToken(t, testSecret, operatorClaims("", "chef")))
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	v := NewJWTValidator(testSecret)
	claims := operatorClaims("op-1", "chef")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err := v.Validate(signToken(t, testSecret, claims))
	assert.Error(t, err)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	v := NewJWTValidator(testSecret)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, operatorClaims("op-1", "chef"))
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Validate(unsigned)
	assert.Error(t, err)
}

func authTestRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	group := router.Group("/", Auth(NewJWTValidator(testSecret)))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/probe", func(c *gin.Context) {
		op := appctx.GetOperator(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"operator": op.ID})
	})
	return router
}

func probe(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := authTestRouter()
	token := signToken(t, testSecret, operatorClaims("op-1", "chef"))

	assert.Equal(t, http.StatusOK, probe(router, "Bearer "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, probe(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, probe(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, probe(router, "Bearer not-a-token").Code)
}

func TestRequireRole(t *testing.T) {
	router := authTestRouter("manager")

	manager := signToken(t, testSecret, operatorClaims("op-1", "manager"))
	waiter := signToken(t, testSecret, operatorClaims("op-2", "waiter"))

	assert.Equal(t, http.StatusOK, probe(router, "Bearer "+manager).Code)
	assert.Equal(t, http.StatusUnauthorized, probe(router, "Bearer "+waiter).Code)
}

func TestRequireRoleAcceptsAnyListed(t *testing.T) {
	router := authTestRouter("manager", "chef")
	chef := signToken(t, testSecret, operatorClaims("op-3", "chef"))
	assert.Equal(t, http.StatusOK, probe(router, "Bearer "+chef).Code)
}
