//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/handler"
)

// MaxBodySize 请求体上限
const MaxBodySize int64 = 1 << 20

type ErrorResponse struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// NewRouter 所有接口通过 POST /?Action=<方法名> 调用，请求体为对应方法的请求结构
func NewRouter(service *handler.CheckoutServiceImpl, metrics http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(30 * time.Second))
	router.Use(chimw.RequestSize(MaxBodySize))

	if metrics != nil {
		router.Handle("/metrics", metrics)
	}
	router.Post("/", Handler(service))
	return router
}

func Handler(service *handler.CheckoutServiceImpl) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("Action")
		method := reflect.ValueOf(service).MethodByName(action)
		if !method.IsValid() || method.Type().NumIn() != 2 || method.Type().NumOut() != 2 {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown action "+action)
			return
		}
		t := method.Type().In(1)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		req := reflect.New(t)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT", "body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "body invalid")
			return
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, req.Interface()); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "body invalid")
				return
			}
		}
		rets := method.Call([]reflect.Value{reflect.ValueOf(r.Context()), req})
		if errValue, ok := rets[1].Interface().(error); ok && errValue != nil {
			writeError(w, StatusOf(errValue), ddd.Kind(errValue), errValue.Error())
			return
		}
		writeJSON(w, http.StatusOK, rets[0].Interface())
	}
}

// StatusOf 错误分类到 http 状态码
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ddd.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ddd.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ddd.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ddd.ErrInvalidState),
		errors.Is(err, ddd.ErrInsufficientStock),
		errors.Is(err, ddd.ErrInsufficientBalance),
		errors.Is(err, ddd.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ddd.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, &ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	bs, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(bs)
}
