package views

import (
	"context"
	"strconv"

	"github.com/AdamBeresnev/op-bracket/internal/middleware"
	users "github.com/AdamBeresnev/op-bracket/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
