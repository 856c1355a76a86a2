package validators

import "go.mongodb.org/mongo-driver/bson"

var UnitValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"name",
			"address",
			"city",
			"price_per_month",
			"gender_policy",
			"room_count",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 5,
				"maxLength": 200,
			},

			"city": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 60,
			},

			"price_per_month": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"gender_policy": bson.M{
				"bsonType": "string",
				"enum": []string{
					"any",
					"male",
					"female",
				},
			},

			"room_count": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
