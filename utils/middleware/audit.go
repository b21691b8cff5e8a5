package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/feocourse/feocourse-api/model"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records an audit trail entry for mutating admin actions.
// The entry captures the prior state of the touched resource (when it can be
// loaded) and the raw request body as the new value.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminUser, ok := GetUser(c)
		if !ok {
			return c.Next() // not an authenticated admin route; nothing to log
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		var oldValue interface{}
		if resourceID > 0 && (c.Method() == "DELETE" || c.Method() == "PUT" || c.Method() == "POST") {
			switch resource {
			case "users":
				var user model.User
				if err := db.First(&user, resourceID).Error; err == nil {
					oldValue = user
				}
			case "courses":
				var course model.Course
				if err := db.First(&course, resourceID).Error; err == nil {
					oldValue = course
				}
			}
		}

		var newValue json.RawMessage
		if body := c.Body(); len(body) > 0 && json.Valid(body) {
			newValue = append(json.RawMessage(nil), body...)
		}

		// Copy request metadata now; the fiber context is recycled once the
		// handler chain returns.
		ip := c.IP()
		userAgent := c.Get("User-Agent")
		description := c.Method() + " " + c.Path()

		err := c.Next()

		go func() {
			oldValueJSON, _ := json.Marshal(oldValue)

			auditLog := model.AdminAuditLog{
				AdminID:     adminUser.ID,
				Action:      action,
				Resource:    resource,
				ResourceID:  resourceID,
				OldValue:    datatypes.JSON(oldValueJSON),
				NewValue:    datatypes.JSON(newValue),
				IPAddress:   ip,
				UserAgent:   userAgent,
				Description: description,
			}

			db.Create(&auditLog)
		}()

		return err
	}
}
