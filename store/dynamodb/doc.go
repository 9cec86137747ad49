// Package dynamodb implements store.Store on an AWS DynamoDB table.
//
// Table schema:
//   - Partition key: email (string), the normalized email
//   - Attributes: id (number), name (string), display_email (string)
//
// One extra item with the key "#seq" holds the ID counter. Normalized emails
// always contain '@', so the counter key never collides with a contact.
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name contactbook \
//	  --attribute-definitions AttributeName=email,AttributeType=S \
//	  --key-schema AttributeName=email,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb
