package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProfileNotFound indicates an unknown profile name.
var ErrProfileNotFound = errors.New("profile not found")

// Profile returns the profile with the given name. An empty name selects
// DefaultProfile.
func (c *Global) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// ProfileNames lists profile names in stored order.
func (c *Global) ProfileNames() []string {
	out := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		out = append(out, p.Name)
	}
	return out
}

// SetProfile adds p or replaces the profile of the same name.
func (c *Global) SetProfile(p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if strings.ContainsAny(p.Name, `/\→`) {
		return fmt.Errorf("invalid profile name %q: must not contain path separators or →", p.Name)
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return nil
		}
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// DeleteProfile removes the named profile.
func (c *Global) DeleteProfile(name string) error {
	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			if c.DefaultProfile == name {
				c.DefaultProfile = ""
				if len(c.Profiles) > 0 {
					c.DefaultProfile = c.Profiles[0].Name
				}
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// Direction returns the modification direction at 1-based position n.
func (c *Global) Direction(n int) (string, error) {
	if n < 1 || n > len(c.Directions) {
		return "", fmt.Errorf("direction %d out of range (have %d)", n, len(c.Directions))
	}
	return c.Directions[n-1], nil
}

// AddDirection appends a modification direction.
func (c *Global) AddDirection(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("direction text is empty")
	}
	c.Directions = append(c.Directions, text)
	return nil
}

// EditDirection replaces the direction at 1-based position n.
func (c *Global) EditDirection(n int, text string) error {
	if _, err := c.Direction(n); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("direction text is empty")
	}
	c.Directions[n-1] = text
	return nil
}

// RemoveDirection deletes the direction at 1-based position n.
func (c *Global) RemoveDirection(n int) error {
	if _, err := c.Direction(n); err != nil {
		return err
	}
	c.Directions = append(c.Directions[:n-1], c.Directions[n:]...)
	return nil
}
