package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type bindRequest struct {
	Name  string   `json:"name" binding:"required"`
	Items []string `json:"items" binding:"required"`
}

func contextWithBody(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	return c
}

func TestBindJSON(t *testing.T) {
	var req bindRequest
	err := BindJSON(contextWithBody(`{"name":"x","items":[]}`), &req)
	assert.NoError(t, err)
	assert.Equal(t, "x", req.Name)
	assert.NotNil(t, req.Items)
}

func TestBindJSON_RejectsUnknownFields(t *testing.T) {
	var req bindRequest
	err := BindJSON(contextWithBody(`{"name":"x","items":[],"cc":["y"]}`), &req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "cc"`)
}

func TestBindJSON_ValidationErrors(t *testing.T) {
	var req bindRequest
	err := BindJSON(contextWithBody(`{"name":"x"}`), &req)

	var ve validator.ValidationErrors
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "Items", ve[0].StructField())
}

func TestBindJSON_MalformedAndEmpty(t *testing.T) {
	var req bindRequest
	assert.Error(t, BindJSON(contextWithBody(`{"name":`), &req))
	assert.ErrorIs(t, BindJSON(contextWithBody(``), &req), ErrEmptyBody)
	assert.Error(t, BindJSON(contextWithBody(`{"name":"x","items":[]} {}`), &req))
	assert.Error(t, BindJSON(contextWithBody(`{"name":1,"items":[]}`), &req))
}
