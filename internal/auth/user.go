package auth

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is ordered: pending < processing < shipped < delivered.
type OrderStatus int

const (
	StatusPending OrderStatus = iota
	StatusProcessing
	StatusShipped
	StatusDelivered
)

var statusNames = [...]string{"pending", "processing", "shipped", "delivered"}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return statusNames[s]
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("auth: invalid order status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range statusNames {
		if n == name {
			*s = OrderStatus(i)
			return nil
		}
	}
	return fmt.Errorf("auth: unknown order status %q", string(b))
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID     string      `json:"id"`
	Date   string      `json:"date"`
	Total  float64     `json:"total"`
	Status OrderStatus `json:"status"`
	Items  []OrderItem `json:"items"`
}

// User is a signed-in customer. JoinDate is an ISO calendar date.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	JoinDate  string  `json:"joinDate"`
	IsInsider bool    `json:"isInsider"`
	Orders    []Order `json:"orders"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
