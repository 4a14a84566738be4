/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package snmp implements the SNMP engine: transport, session reuse,
// response caching and request validation.
package snmp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

const (
	oidSysDescr = ".1.3.6.1.2.1.1.1.0"

	defaultPort           = 161
	defaultTimeout        = 5 * time.Second
	defaultRetries        = 1
	defaultMaxRepetitions = 20
)

// Response is the uniform result of any SNMP operation.
type Response struct {
	Success   bool                 `json:"success"`
	VarBinds  []VarBind            `json:"varbinds"`
	Error     string               `json:"error,omitempty"`
	ErrorCode models.SNMPErrorCode `json:"error_code,omitempty"`
}

// SetRequest is one (oid, type, value) triple for a SET operation.
type SetRequest struct {
	OID   string      `json:"oid"`
	Type  string      `json:"type"` // integer, string, oid, ipaddress, counter32, gauge32, timeticks
	Value interface{} `json:"value"`
}

// Client is the SNMP transport surface used by discovery and the pollers.
// Implementations reuse sessions keyed by (hostname, port, version) and do
// not retry beyond the device's configured retry count.
type Client interface {
	Get(ctx context.Context, device *models.Device, oids []string) (*Response, error)
	GetNext(ctx context.Context, device *models.Device, oids []string) (*Response, error)
	Walk(ctx context.Context, device *models.Device, baseOID string, maxRepetitions uint32) (*Response, error)
	GetBulk(ctx context.Context, device *models.Device, baseOID string, nonRepeaters uint8, maxRepetitions uint32) (*Response, error)
	Set(ctx context.Context, device *models.Device, requests []SetRequest) (*Response, error)
	TestConnection(ctx context.Context, device *models.Device) (*Response, error)
	Close()
}

type sessionKey struct {
	host    string
	port    uint16
	version models.SNMPVersion
}

// client implements Client over gosnmp with a process-scoped session table.
type client struct {
	mu       sync.Mutex
	sessions map[sessionKey]*gosnmp.GoSNMP
	closed   bool
	logger   logger.Logger
}

// NewClient returns a transport with an empty session table. Sessions are
// opened lazily on first use and closed by Close.
func NewClient(log logger.Logger) Client {
	return &client{
		sessions: make(map[sessionKey]*gosnmp.GoSNMP),
		logger:   log.WithComponent("snmp"),
	}
}

func (c *client) session(device *models.Device) (*gosnmp.GoSNMP, error) {
	cfg := device.SNMP

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	key := sessionKey{host: device.Address, port: port, version: cfg.Version}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	if s, ok := c.sessions[key]; ok {
		return s, nil
	}

	s, err := buildSession(device.Address, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	c.sessions[key] = s

	return s, nil
}

// buildSession maps an SNMPConfig onto a gosnmp client.
func buildSession(target string, cfg models.SNMPConfig) (*gosnmp.GoSNMP, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := cfg.Retries
	if retries < 0 {
		retries = defaultRetries
	}

	transport := cfg.Transport
	if transport == "" {
		transport = "udp"
	}

	s := &gosnmp.GoSNMP{
		Target:         target,
		Port:           port,
		Transport:      transport,
		Timeout:        timeout,
		Retries:        retries,
		MaxOids:        gosnmp.MaxOids,
		MaxRepetitions: defaultMaxRepetitions,
	}

	switch cfg.Version {
	case models.SNMPVersion1:
		s.Version = gosnmp.Version1
		s.Community = cfg.Community
	case models.SNMPVersion2c:
		s.Version = gosnmp.Version2c
		s.Community = cfg.Community
	case models.SNMPVersion3:
		s.Version = gosnmp.Version3
		s.SecurityModel = gosnmp.UserSecurityModel
		s.ContextName = cfg.Context

		usm := &gosnmp.UsmSecurityParameters{UserName: cfg.Username}

		switch cfg.AuthLevel {
		case models.AuthLevelAuthPriv:
			s.MsgFlags = gosnmp.AuthPriv

			authProto, err := authProtocol(cfg.AuthProtocol)
			if err != nil {
				return nil, err
			}

			privProto, err := privProtocol(cfg.PrivProtocol)
			if err != nil {
				return nil, err
			}

			usm.AuthenticationProtocol = authProto
			usm.AuthenticationPassphrase = cfg.AuthSecret
			usm.PrivacyProtocol = privProto
			usm.PrivacyPassphrase = cfg.PrivSecret
		case models.AuthLevelAuth:
			s.MsgFlags = gosnmp.AuthNoPriv

			authProto, err := authProtocol(cfg.AuthProtocol)
			if err != nil {
				return nil, err
			}

			usm.AuthenticationProtocol = authProto
			usm.AuthenticationPassphrase = cfg.AuthSecret
		default:
			s.MsgFlags = gosnmp.NoAuthNoPriv
		}

		s.SecurityParameters = usm
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, cfg.Version)
	}

	return s, nil
}

func authProtocol(name string) (gosnmp.SnmpV3AuthProtocol, error) {
	switch strings.ToUpper(name) {
	case "MD5":
		return gosnmp.MD5, nil
	case "SHA":
		return gosnmp.SHA, nil
	case "SHA224":
		return gosnmp.SHA224, nil
	case "SHA256":
		return gosnmp.SHA256, nil
	case "SHA384":
		return gosnmp.SHA384, nil
	case "SHA512":
		return gosnmp.SHA512, nil
	default:
		return gosnmp.NoAuth, fmt.Errorf("%w: %s", ErrUnsupportedAuthProto, name)
	}
}

func privProtocol(name string) (gosnmp.SnmpV3PrivProtocol, error) {
	switch strings.ToUpper(name) {
	case "DES":
		return gosnmp.DES, nil
	case "AES":
		return gosnmp.AES, nil
	case "AES192":
		return gosnmp.AES192, nil
	case "AES256":
		return gosnmp.AES256, nil
	default:
		// 3DES is accepted by validation but the wire library has no
		// implementation for it.
		return gosnmp.NoPriv, fmt.Errorf("%w: %s", ErrUnsupportedPrivProto, name)
	}
}

// errorCodes indexes the standard PDU error-status set by wire value.
var errorCodes = map[gosnmp.SNMPError]models.SNMPErrorCode{
	gosnmp.NoError:             models.SNMPErrNoError,
	gosnmp.TooBig:              models.SNMPErrTooBig,
	gosnmp.NoSuchName:          models.SNMPErrNoSuchName,
	gosnmp.BadValue:            models.SNMPErrBadValue,
	gosnmp.ReadOnly:            models.SNMPErrReadOnly,
	gosnmp.GenErr:              models.SNMPErrGenErr,
	gosnmp.NoAccess:            models.SNMPErrNoAccess,
	gosnmp.WrongType:           models.SNMPErrWrongType,
	gosnmp.WrongLength:         models.SNMPErrWrongLength,
	gosnmp.WrongEncoding:       models.SNMPErrWrongEncoding,
	gosnmp.WrongValue:          models.SNMPErrWrongValue,
	gosnmp.NoCreation:          models.SNMPErrNoCreation,
	gosnmp.InconsistentValue:   models.SNMPErrInconsistentValue,
	gosnmp.ResourceUnavailable: models.SNMPErrResourceUnavailable,
	gosnmp.CommitFailed:        models.SNMPErrCommitFailed,
	gosnmp.UndoFailed:          models.SNMPErrUndoFailed,
	gosnmp.AuthorizationError:  models.SNMPErrAuthorizationError,
	gosnmp.NotWritable:         models.SNMPErrNotWritable,
	gosnmp.InconsistentName:    models.SNMPErrInconsistentName,
}

// timeoutResponse is the uniform result for socket-level failures:
// success=false, error="timeout", no PDU code.
func timeoutResponse() *Response {
	return &Response{Success: false, Error: "timeout"}
}

func responseFromPacket(packet *gosnmp.SnmpPacket) *Response {
	resp := &Response{Success: packet.Error == gosnmp.NoError}

	if packet.Error != gosnmp.NoError {
		code, ok := errorCodes[packet.Error]
		if !ok {
			code = models.SNMPErrGenErr
		}

		resp.ErrorCode = code
		resp.Error = packet.Error.String()
	}

	resp.VarBinds = make([]VarBind, 0, len(packet.Variables))
	for _, v := range packet.Variables {
		resp.VarBinds = append(resp.VarBinds, VarBind{OID: v.Name, Value: FromPDU(v), Raw: v.Value})
	}

	return resp
}

func responseFromPDUs(pdus []gosnmp.SnmpPDU) *Response {
	resp := &Response{Success: true, VarBinds: make([]VarBind, 0, len(pdus))}

	for _, v := range pdus {
		resp.VarBinds = append(resp.VarBinds, VarBind{OID: v.Name, Value: FromPDU(v), Raw: v.Value})
	}

	return resp
}

func (c *client) Get(ctx context.Context, device *models.Device, oids []string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return timeoutResponse(), err
	}

	s, err := c.session(device)
	if err != nil {
		return timeoutResponse(), err
	}

	packet, err := s.Get(oids)
	if err != nil {
		c.dropSession(device)
		return timeoutResponse(), fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return responseFromPacket(packet), nil
}

func (c *client) GetNext(ctx context.Context, device *models.Device, oids []string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return timeoutResponse(), err
	}

	s, err := c.session(device)
	if err != nil {
		return timeoutResponse(), err
	}

	packet, err := s.GetNext(oids)
	if err != nil {
		c.dropSession(device)
		return timeoutResponse(), fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return responseFromPacket(packet), nil
}

func (c *client) Walk(
	ctx context.Context, device *models.Device, baseOID string, maxRepetitions uint32) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return timeoutResponse(), err
	}

	s, err := c.session(device)
	if err != nil {
		return timeoutResponse(), err
	}

	if maxRepetitions > 0 {
		s.MaxRepetitions = maxRepetitions
	}

	var pdus []gosnmp.SnmpPDU

	// v1 has no GetBulk; fall back to GETNEXT walking.
	if device.SNMP.Version == models.SNMPVersion1 {
		pdus, err = s.WalkAll(baseOID)
	} else {
		pdus, err = s.BulkWalkAll(baseOID)
	}

	if err != nil {
		c.dropSession(device)
		return timeoutResponse(), fmt.Errorf("%w: %w", ErrWalkFailed, err)
	}

	return responseFromPDUs(pdus), nil
}

func (c *client) GetBulk(
	ctx context.Context, device *models.Device, baseOID string, nonRepeaters uint8, maxRepetitions uint32) (*Response, error) {
	if device.SNMP.Version == models.SNMPVersion1 {
		return c.Walk(ctx, device, baseOID, maxRepetitions)
	}

	if err := ctx.Err(); err != nil {
		return timeoutResponse(), err
	}

	s, err := c.session(device)
	if err != nil {
		return timeoutResponse(), err
	}

	if maxRepetitions == 0 {
		maxRepetitions = defaultMaxRepetitions
	}

	packet, err := s.GetBulk([]string{baseOID}, nonRepeaters, maxRepetitions)
	if err != nil {
		c.dropSession(device)
		return timeoutResponse(), fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return responseFromPacket(packet), nil
}

func (c *client) Set(ctx context.Context, device *models.Device, requests []SetRequest) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return timeoutResponse(), err
	}

	s, err := c.session(device)
	if err != nil {
		return timeoutResponse(), err
	}

	pdus := make([]gosnmp.SnmpPDU, 0, len(requests))

	for _, r := range requests {
		pdu, err := setPDU(r)
		if err != nil {
			return &Response{Success: false, Error: err.Error()}, err
		}

		pdus = append(pdus, pdu)
	}

	packet, err := s.Set(pdus)
	if err != nil {
		c.dropSession(device)
		return timeoutResponse(), fmt.Errorf("%w: %w", ErrSetFailed, err)
	}

	return responseFromPacket(packet), nil
}

func setPDU(r SetRequest) (gosnmp.SnmpPDU, error) {
	pdu := gosnmp.SnmpPDU{Name: r.OID, Value: r.Value}

	switch strings.ToLower(r.Type) {
	case "integer":
		pdu.Type = gosnmp.Integer
	case "string", "octetstring":
		pdu.Type = gosnmp.OctetString
	case "oid":
		pdu.Type = gosnmp.ObjectIdentifier
	case "ipaddress":
		pdu.Type = gosnmp.IPAddress
	case "counter32":
		pdu.Type = gosnmp.Counter32
	case "gauge32":
		pdu.Type = gosnmp.Gauge32
	case "timeticks":
		pdu.Type = gosnmp.TimeTicks
	case "null":
		pdu.Type = gosnmp.Null
	default:
		return pdu, fmt.Errorf("%w: %s", ErrUnsupportedSetType, r.Type)
	}

	return pdu, nil
}

// TestConnection probes reachability with a GET of sysDescr.0.
func (c *client) TestConnection(ctx context.Context, device *models.Device) (*Response, error) {
	return c.Get(ctx, device, []string{oidSysDescr})
}

func (c *client) dropSession(device *models.Device) {
	port := device.SNMP.Port
	if port == 0 {
		port = defaultPort
	}

	key := sessionKey{host: device.Address, port: port, version: device.SNMP.Version}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[key]; ok {
		if s.Conn != nil {
			_ = s.Conn.Close()
		}

		delete(c.sessions, key)
	}
}

// Close tears down every open session. The client refuses new sessions
// afterwards.
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	for key, s := range c.sessions {
		if s.Conn != nil {
			if err := s.Conn.Close(); err != nil {
				c.logger.Warn().Err(err).Str("host", key.host).Msg("Failed to close SNMP session")
			}
		}

		delete(c.sessions, key)
	}
}
