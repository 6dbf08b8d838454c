package controllers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ErrEmptyBody is returned by BindJSON when the request has no body
var ErrEmptyBody = errors.New("request body is empty")

// BindJSON decodes the request body into obj, rejecting unknown fields and
// trailing data, then runs the binding validator. Validation failures come
// back as validator.ValidationErrors.
func BindJSON(ctx *gin.Context, obj any) error {
	if ctx.Request == nil || ctx.Request.Body == nil {
		return ErrEmptyBody
	}
	decoder := json.NewDecoder(ctx.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return binding.Validator.ValidateStruct(obj)
}
