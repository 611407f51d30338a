// Package client talks to the back office REST API.
// Every call carries a deadline; nothing is retried.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
)

const DefaultTimeout = 15 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ConfigFrom reads the desk.* settings of the app config.
func ConfigFrom(conf *core.Config) Config {
	return Config{BaseURL: conf.Desk.BaseURL, Timeout: conf.Desk.Timeout}
}

type Client struct {
	rest    *rest.Client
	baseURL string
	timeout time.Duration
	token   *atomic.String
}

// New builds a Client. httpClient is optional; http.DefaultClient is used otherwise.
func New(conf Config, httpClient ...*http.Client) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "BaseURL"),
	).Check(); err != nil {
		return nil, err
	}
	hc := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		rest:    &rest.Client{HTTPClient: hc},
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		timeout: timeout,
		token:   atomic.NewString(""),
	}, nil
}

func (c *Client) SetToken(token string) { c.token.Store(token) }
func (c *Client) Token() string         { return c.token.Load() }

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// do sends one request and decodes the success envelope into out (when not nil).
func (c *Client) do(ctx context.Context, op string, method rest.Method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: encoding request", op)
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	if token := c.Token(); token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	if err = json.Unmarshal([]byte(resp.Body), &env); err != nil {
		// not our envelope, e.g. a proxy error page
		return &RejectedError{Status: resp.StatusCode}
	}
	if !env.Success {
		return &RejectedError{Status: resp.StatusCode, Message: env.Error}
	}
	if out != nil {
		if err = json.Unmarshal([]byte(resp.Body), out); err != nil {
			return &TransportError{Op: op, Err: errors.Wrap(err, "decoding response")}
		}
	}
	return nil
}

// send attaches ctx to the built request; rest.Client.Send has no context of its own.
func (c *Client) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(httpResp)
}

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "login", rest.Post, "/auth/login", body, &out); err != nil {
		return "", User{}, err
	}
	c.SetToken(out.Token)
	return out.Token, out.User, nil
}

func (c *Client) Students(ctx context.Context) ([]student.Student, error) {
	var out struct {
		Students []student.Student `json:"students"`
	}
	err := c.do(ctx, "list students", rest.Get, "/students/list", nil, &out)
	return out.Students, err
}

func (c *Client) AddStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var out struct {
		Student student.Student `json:"student"`
	}
	err := c.do(ctx, "add student", rest.Post, "/students/add", ns, &out)
	return out.Student, err
}

func (c *Client) UpdateFee(ctx context.Context, studentID int, totalFee decimal.Decimal) error {
	body := map[string]decimal.Decimal{"total_fee": totalFee}
	return c.do(ctx, "update fee", rest.Put, "/students/update-fee/"+strconv.Itoa(studentID), body, nil)
}

func (c *Client) FeeHistory(ctx context.Context, studentID int) ([]fee.Payment, error) {
	var out struct {
		History []fee.Payment `json:"history"`
	}
	err := c.do(ctx, "fee history", rest.Get, "/fees/history/"+strconv.Itoa(studentID), nil, &out)
	return out.History, err
}

// AddPayment records a payment; an empty paidOn lets the server use today's date.
func (c *Client) AddPayment(ctx context.Context, studentID int, amount decimal.Decimal, paidOn string) error {
	body := struct {
		StudentID  int             `json:"student_id"`
		PaidAmount decimal.Decimal `json:"paid_amount"`
		PaidOn     string          `json:"paid_on,omitempty"`
	}{studentID, amount, paidOn}
	return c.do(ctx, "add payment", rest.Post, "/fees/add", body, nil)
}

func (c *Client) Batches(ctx context.Context) ([]batch.Batch, error) {
	var out struct {
		Batches []batch.Batch `json:"batches"`
	}
	err := c.do(ctx, "list batches", rest.Get, "/batches/list", nil, &out)
	return out.Batches, err
}

func (c *Client) CreateBatch(ctx context.Context, name string) error {
	return c.do(ctx, "create batch", rest.Post, "/batches/create", batch.NewBatch{Name: name}, nil)
}

func (c *Client) BatchStudents(ctx context.Context, batchID int) ([]batch.Member, error) {
	var out struct {
		Students []batch.Member `json:"students"`
	}
	err := c.do(ctx, "batch students", rest.Get, "/batches/"+strconv.Itoa(batchID)+"/students", nil, &out)
	return out.Students, err
}

func (c *Client) AddStudentToBatch(ctx context.Context, batchID, studentID int) error {
	body := batch.AddStudent{BatchID: batchID, StudentID: studentID}
	return c.do(ctx, "add student to batch", rest.Post, "/batches/add-student", body, nil)
}

func (c *Client) RemoveStudentFromBatch(ctx context.Context, batchID, studentID int) error {
	path := "/batches/" + strconv.Itoa(batchID) + "/students/" + strconv.Itoa(studentID)
	return c.do(ctx, "remove student from batch", rest.Delete, path, nil, nil)
}

func (c *Client) DeleteBatch(ctx context.Context, batchID int) error {
	return c.do(ctx, "delete batch", rest.Delete, "/batches/"+strconv.Itoa(batchID), nil, nil)
}

// MarkAttendance submits a whole roster and returns the server's report text.
func (c *Client) MarkAttendance(ctx context.Context, mb attendance.MarkBatch) (string, error) {
	var out struct {
		Report string `json:"report"`
	}
	err := c.do(ctx, "mark attendance", rest.Post, "/attendance/mark-batch", mb, &out)
	return out.Report, err
}

func (c *Client) AttendanceHistory(ctx context.Context) (map[int]attendance.StudentHistory, error) {
	var out struct {
		Students map[int]attendance.StudentHistory `json:"students"`
	}
	err := c.do(ctx, "attendance history", rest.Get, "/attendance/student-history", nil, &out)
	return out.Students, err
}
