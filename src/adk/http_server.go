package adk

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/json"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/repository"
)

type invokeRequest struct {
	Input   string `json:"input"`
	History []Turn `json:"history"`
}

type callRequest struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

type outputResponse struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HTTPHandler exposes the planner over HTTP:
//
//	GET  /tools    registered tool definitions
//	POST /call     run one tool directly
//	POST /invoke   answer one input given client-held history
//	GET  /healthz
func (p *Planner) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p.registry.Definitions()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/call", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		var req callRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}
		if req.Tool == "" {
			http.Error(w, "tool field is required", http.StatusBadRequest)
			return
		}
		tool, err := p.registry.Get(req.Tool)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, repository.ErrUnknownTool) {
				status = http.StatusNotFound
			}
			writeOutput(w, status, outputResponse{Error: err.Error()})
			return
		}
		writeOutput(w, http.StatusOK, outputResponse{Output: tool.Call(r.Context(), req.Input)})
	})

	mux.HandleFunc("/invoke", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		var req invokeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Input) == "" {
			http.Error(w, "input field is required", http.StatusBadRequest)
			return
		}

		output, err := p.Invoke(r.Context(), req.Input, req.History)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			writeOutput(w, status, outputResponse{Error: err.Error()})
			return
		}
		writeOutput(w, http.StatusOK, outputResponse{Output: output})
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func writeOutput(w http.ResponseWriter, status int, resp outputResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ServeHTTP starts an HTTP server bound to addr and shuts down when ctx is
// canceled. Bind failures are returned immediately.
func (p *Planner) ServeHTTP(ctx context.Context, addr string) error {
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           p.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	err = server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
