package fortigate

import (
	"context"
	"net/url"
	"strconv"
)

// Typed wrappers over Request for the REST endpoints the tool layer uses.
// The payloads are forwarded verbatim; the client never interprets the
// device's domain semantics.

// GetSystemStatus fetches basic system information from the device.
func (c *Client) GetSystemStatus(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "monitor/system/status", nil, nil, vdom)
}

// GetVDOMs lists the virtual domains configured on the device. The vdom
// table is a global resource, so no vdom parameter is sent.
func (c *Client) GetVDOMs(ctx context.Context) (map[string]any, error) {
	return c.request(ctx, "GET", "cmdb/system/vdom", nil, nil, "", false)
}

// TestConnection probes the device with a lightweight status call and
// reports reachability. Expected connectivity failures do not surface as
// errors; this is a diagnostic, not an operation.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.GetSystemStatus(ctx, "")
	return err == nil
}

// Firewall policies.

func (c *Client) GetFirewallPolicies(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall/policy", nil, nil, vdom)
}

func (c *Client) GetFirewallPolicy(ctx context.Context, policyID, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall/policy/"+url.PathEscape(policyID), nil, nil, vdom)
}

func (c *Client) CreateFirewallPolicy(ctx context.Context, policy map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "POST", "cmdb/firewall/policy", nil, policy, vdom)
}

func (c *Client) UpdateFirewallPolicy(ctx context.Context, policyID string, policy map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "PUT", "cmdb/firewall/policy/"+url.PathEscape(policyID), nil, policy, vdom)
}

func (c *Client) DeleteFirewallPolicy(ctx context.Context, policyID, vdom string) (map[string]any, error) {
	return c.Request(ctx, "DELETE", "cmdb/firewall/policy/"+url.PathEscape(policyID), nil, nil, vdom)
}

// Address and service objects.

func (c *Client) GetAddressObjects(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall/address", nil, nil, vdom)
}

func (c *Client) CreateAddressObject(ctx context.Context, address map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "POST", "cmdb/firewall/address", nil, address, vdom)
}

func (c *Client) GetServiceObjects(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall.service/custom", nil, nil, vdom)
}

func (c *Client) CreateServiceObject(ctx context.Context, service map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "POST", "cmdb/firewall.service/custom", nil, service, vdom)
}

// Network visibility.

func (c *Client) GetDHCPLeases(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "monitor/system/dhcp", nil, nil, vdom)
}

func (c *Client) GetARPTable(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "monitor/network/arp", nil, nil, vdom)
}

func (c *Client) GetSessionTable(ctx context.Context, count int, vdom string) (map[string]any, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	return c.Request(ctx, "GET", "monitor/firewall/session", query, nil, vdom)
}

func (c *Client) GetDeviceInventory(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "monitor/user/device/query", nil, nil, vdom)
}

// Routing and interfaces.

func (c *Client) GetStaticRoutes(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/router/static", nil, nil, vdom)
}

func (c *Client) GetStaticRoute(ctx context.Context, routeID, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/router/static/"+url.PathEscape(routeID), nil, nil, vdom)
}

func (c *Client) CreateStaticRoute(ctx context.Context, route map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "POST", "cmdb/router/static", nil, route, vdom)
}

func (c *Client) UpdateStaticRoute(ctx context.Context, routeID string, route map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "PUT", "cmdb/router/static/"+url.PathEscape(routeID), nil, route, vdom)
}

func (c *Client) DeleteStaticRoute(ctx context.Context, routeID, vdom string) (map[string]any, error) {
	return c.Request(ctx, "DELETE", "cmdb/router/static/"+url.PathEscape(routeID), nil, nil, vdom)
}

func (c *Client) GetRoutingTable(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "monitor/router/ipv4", nil, nil, vdom)
}

func (c *Client) GetInterfaces(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/system/interface", nil, nil, vdom)
}

func (c *Client) GetInterface(ctx context.Context, name, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/system/interface/"+url.PathEscape(name), nil, nil, vdom)
}

// Virtual IPs.

func (c *Client) GetVirtualIPs(ctx context.Context, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall/vip", nil, nil, vdom)
}

func (c *Client) GetVirtualIP(ctx context.Context, name, vdom string) (map[string]any, error) {
	return c.Request(ctx, "GET", "cmdb/firewall/vip/"+url.PathEscape(name), nil, nil, vdom)
}

func (c *Client) CreateVirtualIP(ctx context.Context, vip map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "POST", "cmdb/firewall/vip", nil, vip, vdom)
}

func (c *Client) UpdateVirtualIP(ctx context.Context, name string, vip map[string]any, vdom string) (map[string]any, error) {
	return c.Request(ctx, "PUT", "cmdb/firewall/vip/"+url.PathEscape(name), nil, vip, vdom)
}

func (c *Client) DeleteVirtualIP(ctx context.Context, name, vdom string) (map[string]any, error) {
	return c.Request(ctx, "DELETE", "cmdb/firewall/vip/"+url.PathEscape(name), nil, nil, vdom)
}
