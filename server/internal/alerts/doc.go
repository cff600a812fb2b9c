// Package alerts implements the rule evaluation engine and notification
// delivery for reliabilitypro alerting. Rules are evaluated against incoming
// inspection reports; notifications go to Teams, Slack, generic HTTP
// webhooks or an AMQP exchange. Only currently firing alerts are kept.
package alerts
