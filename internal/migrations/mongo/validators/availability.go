package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityTemplateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"professional_id",
			"days",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"professional_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"days": bson.M{
				"bsonType": "array",
				"minItems": 7,
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"is_available"},
					"properties": bson.M{
						"is_available": bson.M{
							"bsonType": "bool",
						},
						"morning": windowSchema,
						"evening": windowSchema,
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var windowSchema = bson.M{
	"bsonType": "object",
	"properties": bson.M{
		"start_time": bson.M{
			"bsonType": "string",
			"pattern":  "^$|^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
		"end_time": bson.M{
			"bsonType": "string",
			"pattern":  "^$|^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
		"is_active": bson.M{
			"bsonType": "bool",
		},
	},
}
