package server

import (
	"crypto/subtle"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keyring"
	"github.com/terriblecrypt/terrible/internal/pipeline"
)

// respondError maps an AppError to an HTTP status and JSON body
func respondError(c *gin.Context, err error) {
	c.Data(errors.ToHTTPStatus(err), "application/json", errors.ToJSON(err))
	c.Abort()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidArgumentWithCause("malformed login request", err))
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Serve.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Serve.Password)) == 1
	if !userOK || !passOK {
		respondError(c, errors.NewUnauthorized("bad credentials"))
		return
	}

	token, err := s.jwtAuth.GenerateToken(req.Username)
	if err != nil {
		respondError(c, errors.NewInternalWithCause("issuing token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"token": token}})
}

// handleCrypt XORs the request body with the named key's keystream and
// streams the result back. Self-inverse, so one endpoint covers both
// encryption and decryption.
func (s *Server) handleCrypt(c *gin.Context) {
	name := c.Query("key")
	if name == "" {
		respondError(c, errors.NewInvalidArgument("missing key parameter"))
		return
	}
	key, err := s.ring.Get(name)
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := pipeline.NewCryptReader(c.Request.Body, key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		// Headers are gone; all we can do is log and drop the connection.
		log.Error().Err(err).Str("key", name).Msg("crypt stream aborted")
	}
}

// handleKeystream dumps n raw keystream bytes for the named key.
func (s *Server) handleKeystream(c *gin.Context) {
	name := c.Query("key")
	if name == "" {
		respondError(c, errors.NewInvalidArgument("missing key parameter"))
		return
	}
	length, err := strconv.ParseUint(c.Query("length"), 10, 64)
	if err != nil {
		respondError(c, errors.NewInvalidArgumentWithCause("invalid length", err))
		return
	}

	key, err := s.ring.Get(name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if err := pipeline.Keystream(c.Writer, key, length); err != nil {
		log.Error().Err(err).Str("key", name).Msg("keystream stream aborted")
	}
}

func (s *Server) handleListKeys(c *gin.Context) {
	infos, err := s.ring.List()
	if err != nil {
		respondError(c, err)
		return
	}
	if infos == nil {
		infos = []keyring.KeyInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": infos})
}

type importKeyRequest struct {
	Key string `json:"key"` // base64-encoded 256 bytes
}

func (s *Server) handleImportKey(c *gin.Context) {
	var req importKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidArgumentWithCause("malformed import request", err))
		return
	}
	key, err := base64.StdEncoding.DecodeString(req.Key)
	if err != nil {
		respondError(c, errors.NewInvalidArgumentWithCause("key is not valid base64", err))
		return
	}

	name := c.Param("name")
	if err := s.ring.Put(name, key); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
		"name":        name,
		"fingerprint": keyring.Fingerprint(key),
	}})
}

func (s *Server) handleExportKey(c *gin.Context) {
	name := c.Param("name")
	key, err := s.ring.Get(name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
		"name": name,
		"key":  base64.StdEncoding.EncodeToString(key),
	}})
}

func (s *Server) handleDeleteKey(c *gin.Context) {
	if err := s.ring.Delete(c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}
