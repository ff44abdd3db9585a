package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patient_id",
			"professional_id",
			"appointment_date",
			"appointment_time",
			"duration_min",
			"status",
			"urgency_level",
			"reason",
			"type",
			"submitted_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"patient_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"professional_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"organization_id": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"appointment_date": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
			},

			"appointment_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"requested",
					"approved",
					"rejected",
					"rescheduled",
					"completed",
					"cancelled",
				},
			},

			"urgency_level": bson.M{
				"bsonType": "string",
				"enum": []string{
					"routine",
					"urgent",
					"emergency",
				},
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 500,
			},

			"patient_notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"professional_notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"rejection_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"suggested_times": bson.M{
				"bsonType": "array",
				"maxItems": 5,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "time"},
					"properties": bson.M{
						"date": bson.M{
							"bsonType": "string",
							"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
						},
						"time": bson.M{
							"bsonType": "string",
							"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
						},
					},
				},
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"direct",
					"through_organization",
				},
			},

			"department": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"submitted_at": bson.M{
				"bsonType": "date",
			},

			"reviewed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
