package openapi

import (
	"fmt"
	"sort"
)

// buildDocument wraps the settings schema into a document with one operation
// whose request body references the schema component.
func buildDocument(config generatorConfig, component string, root map[string]any) (map[string]any, error) {
	if root == nil {
		return nil, fmt.Errorf("openapi: root schema cannot be nil")
	}
	b := documentBuilder{config: config}
	document := map[string]any{
		"openapi": config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   b.buildPaths("#/components/schemas/" + component),
		"components": map[string]any{
			"schemas": map[string]any{component: root},
		},
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

type documentBuilder struct {
	config generatorConfig
}

func (b documentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.title,
		"version": b.config.version,
	}
	if b.config.description != "" {
		info["description"] = b.config.description
	}
	return info
}

func (b documentBuilder) buildPaths(ref string) map[string]any {
	content := map[string]any{
		b.config.contentType: map[string]any{
			"schema": map[string]any{"$ref": ref},
		},
	}

	statuses := make([]string, 0, len(b.config.responses))
	for status := range b.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	responses := make(map[string]any, len(statuses))
	for _, status := range statuses {
		responses[status] = map[string]any{"description": b.config.responses[status]}
	}

	write := map[string]any{
		"operationId": b.operationID(),
		"requestBody": map[string]any{
			"required": true,
			"content":  content,
		},
		"responses": responses,
	}
	if b.config.summary != "" {
		write["summary"] = b.config.summary
	}
	item := map[string]any{b.method(): write}

	if b.config.readOperation && b.method() != "get" {
		item["get"] = map[string]any{
			"operationId": "get:" + b.config.path,
			"responses": map[string]any{
				"200": map[string]any{
					"description": "Current settings",
					"content":     content,
				},
			},
		}
	}
	return map[string]any{b.config.path: item}
}

func (b documentBuilder) method() string {
	if b.config.method == "" {
		return "put"
	}
	return b.config.method
}

func (b documentBuilder) operationID() string {
	if b.config.operationID != "" {
		return b.config.operationID
	}
	return fmt.Sprintf("%s:%s", b.method(), b.config.path)
}

// validateDocument checks the structure this package emits. Validate runs the
// full OpenAPI validation.
func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	openapi, _ := document["openapi"].(string)
	if openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for pathKey, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if pathItem == nil {
			return fmt.Errorf("openapi: path %q invalid payload", pathKey)
		}
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if method != "get" {
				requestBody, _ := operation["requestBody"].(map[string]any)
				if requestBody == nil {
					return fmt.Errorf("openapi: operation %s %s missing requestBody", method, pathKey)
				}
				content, _ := requestBody["content"].(map[string]any)
				if len(content) == 0 {
					return fmt.Errorf("openapi: operation %s %s requestBody missing content", method, pathKey)
				}
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
		}
	}
	return nil
}
