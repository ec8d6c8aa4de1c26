package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed: "+field+": "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build errors

func TemplateNotFound(templateID string) *SiteError {
	return Wrap(fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID), CategoryTemplate, SeverityFatal, "cannot load template").
		WithContext("template", templateID)
}

func TemplateParse(templateID string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "cannot parse template").
		WithContext("template", templateID)
}

func RenderFailed(templateID string, cause error) *SiteError {
	return Wrap(cause, CategoryRender, SeverityFatal, "cannot render template").
		WithContext("template", templateID)
}

func WriteFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "cannot write output").
		WithContext("path", path)
}

func SourceNotFound(path string) *SiteError {
	return Wrap(fmt.Errorf("%w: %s", ErrSourceNotFound, path), CategoryFileSystem, SeverityFatal, "static sync failed").
		WithContext("path", path)
}

func FileNotFound(path string) *SiteError {
	return Wrap(fmt.Errorf("%w: %s", ErrFileNotFound, path), CategoryFileSystem, SeverityFatal, "static override failed").
		WithContext("path", path)
}

func FileSystem(operation string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
