// Package handler exposes the flow endpoint over HTTP: signature
// verification, envelope decryption, flow-token validation, dispatch, and
// response encryption under the request's session keying.
package handler

import (
	"crypto/rsa"
	"io"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/flows-checkout/internal/checkout"
	"github.com/xenking/flows-checkout/internal/flowcrypto"
	"github.com/xenking/flows-checkout/internal/flowtoken"
	"github.com/xenking/flows-checkout/internal/protocol"
)

// maxBodySize bounds the raw request body. Flow payloads are small; anything
// close to this limit is hostile.
const maxBodySize = 1 << 20

// Handler serves the encrypted data-exchange endpoint.
type Handler struct {
	appSecret  string
	privateKey *rsa.PrivateKey
	tokens     flowtoken.Validator
	checkout   *checkout.Service
}

// New builds a Handler. appSecret may be empty to skip signature checks in
// local development.
func New(appSecret string, privateKey *rsa.PrivateKey, tokens flowtoken.Validator, svc *checkout.Service) *Handler {
	return &Handler{
		appSecret:  appSecret,
		privateKey: privateKey,
		tokens:     tokens,
		checkout:   svc,
	}
}

// Exchange handles POST /. The response body is the base64 ciphertext of the
// response message; failures before key recovery are bare status codes since
// no encrypted response is possible yet.
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		lg.Error("Read request body", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !VerifySignature(h.appSecret, r.Header.Get(SignatureHeader), body) {
		lg.Warn("Request signature did not match")
		w.WriteHeader(protocol.StatusBadSignature)
		return
	}

	env, err := flowcrypto.ParseEnvelope(body)
	if err != nil {
		lg.Warn("Malformed request envelope", zap.Error(err))
		w.WriteHeader(protocol.StatusInvalidRequest)
		return
	}

	key, iv, plaintext, err := flowcrypto.DecryptRequest(env, h.privateKey)
	if err != nil {
		// Wrong or rotated private key: fatal misconfiguration, not a user
		// error. No detail leaves the process.
		lg.Error("Unable to decrypt the request", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	msg, err := protocol.DecodeMessage(plaintext)
	if err != nil {
		lg.Warn("Undecodable flow message", zap.Error(err))
		h.respondError(w, lg, key, iv, &protocol.Message{},
			protocol.NewError(protocol.StatusInvalidRequest, "Invalid Request - Malformed message"))
		return
	}

	lg.Debug("Decrypted request",
		zap.String("action", msg.Action),
		zap.String("sub_action", msg.SubAction),
		zap.String("screen", msg.Screen),
	)

	if err := h.tokens.Validate(msg.FlowToken); err != nil {
		pe, ok := protocol.AsError(err)
		if !ok {
			pe = protocol.NewError(protocol.StatusFlowRejected, "Invalid flow token")
		}
		lg.Warn("Flow token rejected", zap.Int("code", pe.Code))
		h.respondError(w, lg, key, iv, msg, pe)
		return
	}

	resp, err := h.checkout.Exchange(r.Context(), msg)
	if err != nil {
		if pe, ok := protocol.AsError(err); ok {
			h.respondError(w, lg, key, iv, msg, pe)
			return
		}
		lg.Error("Exchange failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.respond(w, lg, key, iv, protocol.StatusOK, resp)
}

// Index handles GET / with a plain hint page.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<pre>Nothing to see here. Checkout README.md to start.</pre>")
}

func (h *Handler) respondError(w http.ResponseWriter, lg *zap.Logger, key, iv []byte, msg *protocol.Message, pe *protocol.Error) {
	h.respond(w, lg, key, iv, pe.Code, &protocol.Response{
		Version:   msg.Version,
		SubAction: msg.SubAction,
		Data:      protocol.ErrorData{Error: pe.Message},
	})
}

func (h *Handler) respond(w http.ResponseWriter, lg *zap.Logger, key, iv []byte, status int, resp *protocol.Response) {
	plaintext, err := resp.Encode()
	if err != nil {
		lg.Error("Encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	ciphertext, err := flowcrypto.EncryptResponse(plaintext, key, iv)
	if err != nil {
		lg.Error("Encrypt response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, ciphertext)
}
