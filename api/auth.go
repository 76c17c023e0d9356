package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/petomi/doodle-mail-server/models"
)

const bcryptCost = 14

// UserStore is the slice of the store the auth endpoints need.
type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type AuthHandler struct {
	Users     UserStore
	JWTSecret string
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}
	if data["username"] == "" || data["email"] == "" || data["password"] == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "missing required field"})
	}

	password, err := bcrypt.GenerateFromPassword([]byte(data["password"]), bcryptCost)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "something went wrong"})
	}

	user := &models.User{
		UserName:  data["username"],
		Email:     data["email"],
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Users.InsertUser(c.Context(), user); err != nil {
		logrus.WithError(err).Error("Failed to insert new user")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "something went wrong"})
	}
	return c.JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}

	user, err := h.Users.FindUserByEmail(c.Context(), data["email"])
	if err != nil {
		logrus.WithError(err).Error("Failed to look up user by email")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "something went wrong"})
	}
	if user == nil {
		c.Status(fiber.StatusNotFound)
		return c.JSON(fiber.Map{"message": "user not found"})
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(data["password"])); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "incorrect password"})
	}

	// Token expires in a day; the user id rides in the issuer claim.
	expires := time.Now().Add(24 * time.Hour)
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Issuer:    user.ID.Hex(),
		ExpiresAt: expires.Unix(),
	})
	token, err := claims.SignedString([]byte(h.JWTSecret))
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "could not log in"})
	}

	cookie := new(fiber.Cookie)
	cookie.Name = "jwt"
	cookie.Value = token
	cookie.Expires = expires
	cookie.HTTPOnly = true
	c.Cookie(cookie)

	return c.JSON(user)
}

func (h *AuthHandler) GetUserAuth(c *fiber.Ctx) error {
	user := h.currentUser(c)
	if user == nil {
		c.Status(fiber.StatusUnauthorized)
		return c.JSON(fiber.Map{"message": "unauthenticated"})
	}
	return c.JSON(user)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	cookie := new(fiber.Cookie)
	cookie.Name = "jwt"
	cookie.Value = ""
	cookie.Expires = time.Now().Add(-time.Hour)
	cookie.HTTPOnly = true
	c.Cookie(cookie)

	return c.JSON(fiber.Map{"message": ""})
}

// currentUser resolves the logged-in user from the jwt cookie, or nil if the
// request carries no valid token.
func (h *AuthHandler) currentUser(c *fiber.Ctx) *models.User {
	return UserFromToken(c.Context(), h.Users, h.JWTSecret, c.Cookies("jwt"))
}

// UserFromToken parses a signed token and loads the user it names. Shared
// with the websocket connect path, which reads the same cookie.
func UserFromToken(ctx context.Context, users UserStore, secret, tokenString string) *models.User {
	if tokenString == "" {
		return nil
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.StandardClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(claims.Issuer)
	if err != nil {
		return nil
	}
	user, err := users.FindUserByID(ctx, id)
	if err != nil || user == nil {
		return nil
	}
	return user
}
