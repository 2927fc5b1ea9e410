package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/askdb/internal/shop"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Query types reported by the chat endpoint.
const (
	QueryTypeDatabase = "database_query"
	QueryTypeError    = "error"
)

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// QueryRequest is the body of POST /query. The statement may also be passed
// as the query URL parameter.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Query   string      `json:"query"`
	Results []nlsql.Row `json:"results"`
}

// ChatMessage is the body of POST /chat.
type ChatMessage struct {
	Message string `json:"message"`
	UserID  *int64 `json:"user_id,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response  string      `json:"response"`
	Data      []nlsql.Row `json:"data"`
	QueryType string      `json:"query_type"`
}

// NLQueryRequest is the body of POST /chat/query.
type NLQueryRequest struct {
	NaturalLanguageQuery string `json:"natural_language_query"`
}

// NLQueryResponse is the body returned by POST /chat/query.
type NLQueryResponse struct {
	SQLQuery    string      `json:"sql_query"`
	Results     []nlsql.Row `json:"results"`
	Explanation string      `json:"explanation"`
}

// ExamplesResponse is the body returned by GET /chat/examples.
type ExamplesResponse struct {
	Examples []string `json:"examples"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "askdb API is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.SQLDB().PingContext(r.Context()); err != nil {
		s.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Message: "API is running"})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.compiler.Schema().Get())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req := QueryRequest{Query: r.URL.Query().Get("query")}
	if req.Query == "" {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	res := s.exec.Run(r.Context(), req.Query)
	if msg, failed := res.Failure(); failed {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: msg})
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Query: req.Query, Results: res.Rows})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatMessage
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	ans := s.compiler.Answer(r.Context(), req.Message, s.exec)
	if !ans.Success {
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:  ans.Explanation,
			Data:      []nlsql.Row{},
			QueryType: QueryTypeError,
		})
		return
	}
	if msg, failed := ans.Result.Failure(); failed {
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:  "I'm sorry, I encountered an error: " + msg,
			Data:      []nlsql.Row{},
			QueryType: QueryTypeError,
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  ans.Explanation,
		Data:      ans.Result.Rows,
		QueryType: QueryTypeDatabase,
	})
}

func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req NLQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.NaturalLanguageQuery) == "" {
		writeError(w, http.StatusBadRequest, errors.New("natural_language_query is required"))
		return
	}

	ans := s.compiler.Answer(r.Context(), req.NaturalLanguageQuery, s.exec)
	if !ans.Success {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: ans.Explanation})
		return
	}

	rows := ans.Result.Rows
	if rows == nil {
		rows = []nlsql.Row{}
	}
	writeJSON(w, http.StatusOK, NLQueryResponse{
		SQLQuery:    ans.SQL,
		Results:     rows,
		Explanation: ans.Explanation,
	})
}

func (s *Server) handleExamples(w http.ResponseWriter, _ *http.Request) {
	examples := s.cfg.Examples
	if examples == nil {
		examples = []string{}
	}
	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: examples})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context(), pageFrom(r))
	s.respond(w, users, err)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	s.respond(w, u, err)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in shop.UserCreate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), in)
	s.respond(w, u, err)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context(), pageFrom(r))
	s.respond(w, products, err)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.GetProduct(r.Context(), id)
	s.respond(w, p, err)
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ProductsByCategory(r.Context(), chi.URLParam(r, "category"))
	s.respond(w, products, err)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in shop.ProductCreate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.CreateProduct(r.Context(), in)
	s.respond(w, p, err)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context(), pageFrom(r))
	s.respond(w, orders, err)
}

func (s *Server) handleOrdersByUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orders, err := s.store.OrdersByUser(r.Context(), id)
	s.respond(w, orders, err)
}

func (s *Server) handleOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.OrdersByStatus(r.Context(), chi.URLParam(r, "status"))
	s.respond(w, orders, err)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in shop.OrderCreate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := s.store.CreateOrder(r.Context(), in)
	s.respond(w, o, err)
}

// respond maps store errors to status codes.
func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, shop.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, shop.ErrInvalid):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error("store request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func pageFrom(r *http.Request) shop.Page {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return shop.Page{Skip: skip, Limit: limit}
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}
