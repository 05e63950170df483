package room

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	MemberId string
	RoomId   string
}

func (s service) generateSessionToken(memberId, roomId string) (string, error) {
	claims := jwt.MapClaims{
		"member_id": memberId,
		"room_id":   roomId,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s service) parseSessionToken(tokenString string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}

	memberId, ok := claims["member_id"].(string)
	if !ok {
		return nil, errors.New("invalid token")
	}
	roomId, ok := claims["room_id"].(string)
	if !ok {
		return nil, errors.New("invalid token")
	}

	return &sessionClaims{
		MemberId: memberId,
		RoomId:   roomId,
	}, nil
}

// RestoreSession recovers the member and room ids embedded in a session
// token, used by front doors when a reconnecting client supplies only the
// token.
func (s service) RestoreSession(tokenString string) (string, string, error) {
	claims, err := s.parseSessionToken(tokenString)
	if err != nil {
		return "", "", err
	}

	return claims.MemberId, claims.RoomId, nil
}
