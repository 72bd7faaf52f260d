package client

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// DefaultPlaceholderName is the generic name checkout forms submit when the
// customer leaves the field blank. It may be replaced by a real name later.
const DefaultPlaceholderName = "Cliente"

// Client is a paying end customer. It is not necessarily a site account.
type Client struct {
	id                 string
	name               *string
	email              *string
	phone              *string
	externalCustomerID *string
	userID             *string

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// Details is the contact information a payment provider reports.
type Details struct {
	Name  string
	Email string
	Phone string
}

func NewClient(details Details, externalCustomerID string) (*Client, error) {
	if details.Email == "" {
		return nil, fmt.Errorf("client email is required")
	}
	now := biztime.NowUTC()
	return &Client{
		id:                 id.New(id.PrefixClient),
		name:               optional(details.Name),
		email:              optional(details.Email),
		phone:              optional(details.Phone),
		externalCustomerID: optional(externalCustomerID),
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Merge folds newly reported details into the record: the external customer
// id and phone are only backfilled, the name is replaced only while absent or
// equal to placeholder, and the email is never touched.
func (c *Client) Merge(details Details, externalCustomerID, placeholder string) bool {
	changed := false

	if c.externalCustomerID == nil && externalCustomerID != "" {
		c.externalCustomerID = &externalCustomerID
		changed = true
	}
	if details.Name != "" && (c.name == nil || *c.name == "" || *c.name == placeholder) && !c.hasName(details.Name) {
		name := details.Name
		c.name = &name
		changed = true
	}
	if c.phone == nil && details.Phone != "" {
		phone := details.Phone
		c.phone = &phone
		changed = true
	}

	if changed {
		c.touch()
	}
	return changed
}

func (c *Client) hasName(name string) bool {
	return c.name != nil && *c.name == name
}

// LinkUser attaches a site account. An existing link is kept.
func (c *Client) LinkUser(userID string) bool {
	if userID == "" || c.userID != nil {
		return false
	}
	c.userID = &userID
	c.touch()
	return true
}

func (c *Client) touch() {
	c.updatedAt = biztime.NowUTC()
	c.version++
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) Name() *string               { return c.name }
func (c *Client) Email() *string              { return c.email }
func (c *Client) Phone() *string              { return c.phone }
func (c *Client) ExternalCustomerID() *string { return c.externalCustomerID }
func (c *Client) UserID() *string             { return c.userID }
func (c *Client) Version() int                { return c.version }
func (c *Client) CreatedAt() time.Time        { return c.createdAt }
func (c *Client) UpdatedAt() time.Time        { return c.updatedAt }

// DisplayName returns the name or the placeholder when none is stored.
func (c *Client) DisplayName() string {
	if c.name == nil || *c.name == "" {
		return DefaultPlaceholderName
	}
	return *c.name
}

func ReconstructClient(
	clientID string,
	name, email, phone, externalCustomerID, userID *string,
	version int,
	createdAt, updatedAt time.Time,
) *Client {
	return &Client{
		id:                 clientID,
		name:               name,
		email:              email,
		phone:              phone,
		externalCustomerID: externalCustomerID,
		userID:             userID,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}
