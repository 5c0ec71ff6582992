package storefront

import "github.com/anugrahsy/monolog-food-orders-app/internal/middleware"

var openSelectorSchema = middleware.MustSchema(`{
  "type": "object",
  "required": ["category", "index"],
  "properties": {
    "category": { "type": "string", "minLength": 1 },
    "index": { "type": "integer", "minimum": 0 }
  },
  "additionalProperties": false
}`)

var selectorEditSchema = middleware.MustSchema(`{
  "type": "object",
  "properties": {
    "quantity": { "type": "integer", "minimum": -999, "maximum": 999 },
    "quantityDelta": { "type": "integer", "minimum": -999, "maximum": 999 },
    "notes": { "type": "string", "maxLength": 500 },
    "temperature": { "enum": ["Hot", "Ice"] },
    "sugarLevel": { "enum": ["Normal", "Less", "None"] },
    "shots": { "enum": ["None", "Shot", "Double"] },
    "toggleTopping": { "enum": ["Messes", "Jelly Coffee"] }
  },
  "additionalProperties": false
}`)

var quantitySchema = middleware.MustSchema(`{
  "type": "object",
  "required": ["index", "delta"],
  "properties": {
    "index": { "type": "integer", "minimum": 0 },
    "delta": { "type": "integer", "minimum": -999, "maximum": 999 }
  },
  "additionalProperties": false
}`)

var lookupAnswerSchema = middleware.MustSchema(`{
  "type": "object",
  "required": ["token"],
  "properties": {
    "token": { "type": "string", "minLength": 1 },
    "position": {
      "type": "object",
      "required": ["lat", "lng"],
      "properties": {
        "lat": { "type": "number", "minimum": -90, "maximum": 90 },
        "lng": { "type": "number", "minimum": -180, "maximum": 180 }
      },
      "additionalProperties": false
    },
    "failure": { "enum": ["unsupported", "denied", "timeout", "unavailable"] }
  },
  "additionalProperties": false
}`)

var promoSchema = middleware.MustSchema(`{
  "type": "object",
  "required": ["code"],
  "properties": {
    "code": { "type": "string", "maxLength": 64 }
  },
  "additionalProperties": false
}`)

var checkoutSchema = middleware.MustSchema(`{
  "type": "object",
  "required": ["name", "phone", "address"],
  "properties": {
    "name": { "type": "string", "maxLength": 200 },
    "phone": { "type": "string", "maxLength": 40 },
    "address": { "type": "string", "maxLength": 500 },
    "notes": { "type": "string", "maxLength": 500 }
  },
  "additionalProperties": false
}`)
